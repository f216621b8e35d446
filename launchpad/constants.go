package launchpad

const (
	operatorKey        = "operator"
	approverKey        = "approver"
	contractAddressKey = "contract_address"
	chainIDKey         = "chain_id"
	salesLengthKey     = "sales_length"

	// custodyAccount holds sale tokens moved in by AddVesting until they
	// are claimed.
	custodyAccount = "vesting_custody"

	// nativeToken is the pseudo-token under which forwarded purchase
	// payments are credited to a sale's fund recipient.
	nativeToken = "native"

	bpsDenominator    = 10000
	farmedPointWeight = 2

	hexAddressRegex   = `^(0x)?[0-9a-fA-F]{40}$`
	tokenAddressRegex = `^(0x)?[0-9a-fA-F]{40}$`

	saleCreatedEvent        = "SaleCreated"
	allowedTokenEvent       = "AllowedTokenSet"
	whitelistedEvent        = "Whitelisted"
	tokensPurchasedEvent    = "TokensPurchased"
	vestingAddedEvent       = "VestingAdded"
	vestingClaimedEvent     = "VestingClaimed"
	whitelistWindowSetEvent = "WhitelistWindowSet"
)

// Allocation strategy variants. A sale created without a strategy defaults
// to Flat.
const (
	StrategyFlat                = "Flat"
	StrategyLinear              = "Linear"
	StrategyLinearWithWhitelist = "LinearWithWhitelist"
)

func isValidStrategyType(strategyType string) bool {
	validStrategyTypes := map[string]bool{
		StrategyFlat:                true,
		StrategyLinear:              true,
		StrategyLinearWithWhitelist: true,
	}
	return validStrategyTypes[strategyType]
}

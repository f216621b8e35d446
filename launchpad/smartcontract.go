package launchpad

import (
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

type SmartContract struct {
	kalpsdk.Contract
}

// Initialize records the deployment configuration: the caller becomes the
// operator, and the approver address, contract address and chain id form
// the signing domain for every whitelist and purchase signature. One-shot.
func (s *SmartContract) Initialize(ctx kalpsdk.TransactionContextInterface, approver, contractAddress string, chainID uint64) error {
	signer, err := GetUserId(ctx)
	if err != nil {
		return NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	existingOperator, err := ctx.GetState(operatorKey)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to get operator", err)
	}
	if existingOperator != nil {
		return ErrAlreadyInitialized
	}

	if !IsUserAddressValid(normalizeAddress(approver)) {
		return fmt.Errorf("%w: approver %s", ErrInvalidUserAddress, approver)
	}
	if !IsTokenAddressValid(contractAddress) {
		return fmt.Errorf("%w: contract address %s", ErrInvalidTokenAddress, contractAddress)
	}
	if chainID == 0 {
		return InvalidAmountError("chain id", "0")
	}

	err = ctx.PutStateWithoutKYC(operatorKey, []byte(signer))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set operator", err)
	}
	err = ctx.PutStateWithoutKYC(approverKey, []byte(approver))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set approver", err)
	}
	err = ctx.PutStateWithoutKYC(contractAddressKey, []byte(contractAddress))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set contract address", err)
	}
	err = ctx.PutStateWithoutKYC(chainIDKey, []byte(strconv.FormatUint(chainID, 10)))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set chain id", err)
	}

	return nil
}

// SetAllowedToken toggles a token's membership in the allowed set. The
// check is repeated at purchase time, so revoking a token immediately
// blocks further purchases on sales already created with it.
func (s *SmartContract) SetAllowedToken(ctx kalpsdk.TransactionContextInterface, token string, allowed bool) error {
	_, err := requireOperator(ctx)
	if err != nil {
		return err
	}

	if !IsTokenAddressValid(token) {
		return fmt.Errorf("%w: %s", ErrInvalidTokenAddress, token)
	}

	err = SetAllowedTokenState(ctx, token, allowed)
	if err != nil {
		return err
	}

	return EmitAllowedTokenSet(ctx, token, allowed)
}

// CreateSale appends a new sale. Pass an empty strategyType for the Flat
// default; strategyCap defaults to totalSale when empty. minUnit of "0"
// disables the minimum-purchase floor.
func (s *SmartContract) CreateSale(
	ctx kalpsdk.TransactionContextInterface,
	token string,
	fundRecipient string,
	totalSale string,
	startTime uint64,
	endTime uint64,
	unitPrice string,
	minUnit string,
	strategyType string,
	strategyCap string,
	requiresSig bool,
) (uint64, error) {
	_, err := requireOperator(ctx)
	if err != nil {
		return 0, err
	}

	if !IsTokenAddressValid(token) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTokenAddress, token)
	}
	if !IsUserAddressValid(normalizeAddress(fundRecipient)) {
		return 0, fmt.Errorf("%w: fund recipient %s", ErrInvalidUserAddress, fundRecipient)
	}

	if startTime >= endTime {
		return 0, fmt.Errorf("%w: startTime %d >= endTime %d", ErrInvalidWindow, startTime, endTime)
	}

	allowed, err := IsTokenAllowed(ctx, token)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, fmt.Errorf("%w: %s", ErrTokenNotAllowed, token)
	}

	totalSaleAmount, ok := new(big.Int).SetString(totalSale, 10)
	if !ok || totalSaleAmount.Sign() <= 0 {
		return 0, InvalidAmountError("total sale", totalSale)
	}
	unitPriceAmount, ok := new(big.Int).SetString(unitPrice, 10)
	if !ok || unitPriceAmount.Sign() <= 0 {
		return 0, InvalidAmountError("unit price", unitPrice)
	}
	if minUnit == "" {
		minUnit = "0"
	}
	minUnitAmount, ok := new(big.Int).SetString(minUnit, 10)
	if !ok || minUnitAmount.Sign() < 0 {
		return 0, InvalidAmountError("min unit", minUnit)
	}

	if strategyType == "" {
		strategyType = StrategyFlat
	}
	if !isValidStrategyType(strategyType) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidStrategy, strategyType)
	}
	if strategyCap == "" {
		strategyCap = totalSale
	}
	if capAmount, ok := new(big.Int).SetString(strategyCap, 10); !ok || capAmount.Sign() < 0 {
		return 0, InvalidAmountError("strategy cap", strategyCap)
	}

	sale := &Sale{
		SaleToken:     token,
		FundRecipient: fundRecipient,
		TotalSale:     totalSale,
		TotalSold:     "0",
		StartTime:     startTime,
		EndTime:       endTime,
		UnitPrice:     unitPrice,
		MinUnit:       minUnitAmount.String(),
		Strategy:      &AllocationStrategy{Type: strategyType, Cap: strategyCap},
		RequiresSig:   requiresSig,
	}

	saleID, err := GetSalesLength(ctx)
	if err != nil {
		return 0, err
	}

	err = SetSale(ctx, saleID, sale)
	if err != nil {
		return 0, err
	}
	err = SetSalesLength(ctx, saleID+1)
	if err != nil {
		return 0, err
	}

	err = EmitSaleCreated(ctx, saleID, sale)
	if err != nil {
		return 0, err
	}

	return saleID, nil
}

// BuyTokenWithEth purchases sale tokens with the native currency sent
// alongside the call. For signature-gated sales the approver's clearance
// signature is single-use per (sale, buyer). The whole purchase is
// rejected when it would push the buyer past their allocation; there is no
// partial fill.
func (s *SmartContract) BuyTokenWithEth(ctx kalpsdk.TransactionContextInterface, saleID uint64, amountSent string, signature string) error {
	buyer, err := GetUserId(ctx)
	if err != nil {
		return NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	sale, err := GetSale(ctx, saleID)
	if err != nil {
		return err
	}

	now := currentTime()
	if now < sale.StartTime || now >= sale.EndTime {
		return fmt.Errorf("%w: sale %d", ErrNotInSaleWindow, saleID)
	}

	allowed, err := IsTokenAllowed(ctx, sale.SaleToken)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrTokenNotAllowed, sale.SaleToken)
	}

	if sale.RequiresSig {
		used, err := isPurchaseSigUsed(ctx, saleID, buyer)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: sale %d buyer %s", ErrSignatureAlreadyUsed, saleID, buyer)
		}

		contractAddress, chainID, err := getChainConfig(ctx)
		if err != nil {
			return err
		}
		digest, err := PurchaseDigest(buyer, contractAddress, chainID, saleID)
		if err != nil {
			return err
		}
		err = verifyApproverSignature(ctx, digest, common.FromHex(signature))
		if err != nil {
			return err
		}
	}

	amount, ok := new(big.Int).SetString(amountSent, 10)
	if !ok || amount.Sign() <= 0 {
		return InvalidAmountError("amount sent", amountSent)
	}

	unitPrice, ok := new(big.Int).SetString(sale.UnitPrice, 10)
	if !ok {
		return InvalidAmountError("unit price", sale.UnitPrice)
	}

	// unitsRequested = amountSent * 10^18 / unitPrice, rounded down.
	unitsRequested := new(big.Int).Mul(amount, tokenUnit)
	unitsRequested.Div(unitsRequested, unitPrice)

	minUnit, ok := new(big.Int).SetString(sale.MinUnit, 10)
	if !ok {
		return InvalidAmountError("min unit", sale.MinUnit)
	}
	if minUnit.Sign() > 0 && unitsRequested.Cmp(minUnit) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrBelowMinimumPurchase, unitsRequested.String(), minUnit.String())
	}

	userInfo, err := GetUserInfo(ctx, saleID, buyer)
	if err != nil {
		return err
	}
	if userInfo == nil {
		alloc, err := computeAllocation(ctx, buyer, saleID, sale)
		if err != nil {
			return err
		}
		userInfo = &UserInfo{Alloc: alloc.String(), Bought: "0"}
	}

	alloc, ok := new(big.Int).SetString(userInfo.Alloc, 10)
	if !ok {
		return InvalidAmountError("alloc", userInfo.Alloc)
	}
	bought, ok := new(big.Int).SetString(userInfo.Bought, 10)
	if !ok {
		return InvalidAmountError("bought", userInfo.Bought)
	}
	totalSold, ok := new(big.Int).SetString(sale.TotalSold, 10)
	if !ok {
		return InvalidAmountError("total sold", sale.TotalSold)
	}
	totalSale, ok := new(big.Int).SetString(sale.TotalSale, 10)
	if !ok {
		return InvalidAmountError("total sale", sale.TotalSale)
	}

	newBought := new(big.Int).Add(bought, unitsRequested)
	if newBought.Cmp(alloc) > 0 {
		return fmt.Errorf("%w: %s + %s exceeds allocation %s", ErrAllocationExceeded, bought.String(), unitsRequested.String(), alloc.String())
	}

	newTotalSold := new(big.Int).Add(totalSold, unitsRequested)
	if newTotalSold.Cmp(totalSale) > 0 {
		return fmt.Errorf("%w: sale %d has %s units left", ErrAllocationExceeded, saleID, new(big.Int).Sub(totalSale, totalSold).String())
	}

	userInfo.Bought = newBought.String()
	err = SetUserInfo(ctx, saleID, buyer, userInfo)
	if err != nil {
		return err
	}

	sale.TotalSold = newTotalSold.String()
	err = SetSale(ctx, saleID, sale)
	if err != nil {
		return err
	}

	if sale.RequiresSig {
		err = markPurchaseSigUsed(ctx, saleID, buyer)
		if err != nil {
			return err
		}
	}

	err = creditBalance(ctx, nativeToken, sale.FundRecipient, amount)
	if err != nil {
		return err
	}

	return EmitTokensPurchased(ctx, saleID, buyer, amount.String(), unitsRequested.String(), sale.TotalSold)
}

// GetAllocation reports the purchase cap an account has, or would get, for
// a sale: the cached value once a first purchase happened, otherwise the
// value the strategy would compute right now.
func (s *SmartContract) GetAllocation(ctx kalpsdk.TransactionContextInterface, account string, saleID uint64) (string, error) {
	sale, err := GetSale(ctx, saleID)
	if err != nil {
		return "0", err
	}

	userInfo, err := GetUserInfo(ctx, saleID, account)
	if err != nil {
		return "0", err
	}
	if userInfo != nil {
		return userInfo.Alloc, nil
	}

	alloc, err := computeAllocation(ctx, account, saleID, sale)
	if err != nil {
		return "0", err
	}

	return alloc.String(), nil
}

func (s *SmartContract) SalesLength(ctx kalpsdk.TransactionContextInterface) (uint64, error) {
	return GetSalesLength(ctx)
}

// AllSales returns every sale in creation order.
func (s *SmartContract) AllSales(ctx kalpsdk.TransactionContextInterface) ([]*Sale, error) {
	length, err := GetSalesLength(ctx)
	if err != nil {
		return nil, err
	}

	sales := make([]*Sale, 0, length)
	for saleID := uint64(0); saleID < length; saleID++ {
		sale, err := GetSale(ctx, saleID)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}

	return sales, nil
}

func (s *SmartContract) GetSale(ctx kalpsdk.TransactionContextInterface, saleID uint64) (*Sale, error) {
	return GetSale(ctx, saleID)
}

// GetUserInfo returns the purchase record for (sale, account); a zeroed
// record when the account never purchased.
func (s *SmartContract) GetUserInfo(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) (*UserInfo, error) {
	userInfo, err := GetUserInfo(ctx, saleID, account)
	if err != nil {
		return nil, err
	}
	if userInfo == nil {
		return &UserInfo{Alloc: "0", Bought: "0"}, nil
	}

	return userInfo, nil
}

package launchpad

import (
	"fmt"
	"math/big"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// computeAllocation maps (account, sale) to the maximum cumulative amount
// the account may purchase. It reads state but never writes it; the caller
// caches the first result into UserInfo, so later changes to the inputs do
// not move a buyer's cap.
func computeAllocation(ctx kalpsdk.TransactionContextInterface, account string, saleID uint64, sale *Sale) (*big.Int, error) {
	strategy := sale.Strategy
	if strategy == nil {
		strategy = &AllocationStrategy{Type: StrategyFlat, Cap: sale.TotalSale}
	}

	switch strategy.Type {
	case StrategyFlat, StrategyLinear:
		// Linear behaves as a fixed per-account share precomputed at
		// sale creation, so both variants read the configured cap.
		capAmount, ok := new(big.Int).SetString(strategy.Cap, 10)
		if !ok {
			return nil, InvalidAmountError("strategy cap", strategy.Cap)
		}
		return capAmount, nil

	case StrategyLinearWithWhitelist:
		return whitelistAllocation(ctx, account, saleID, sale)

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidStrategy, strategy.Type)
	}
}

// whitelistAllocation scales the sale's total against the account's share
// of all registered eligibility points. An account with no snapshot, or a
// zero userPoint, gets a cap of zero and consequently fails any purchase
// with AllocationExceeded.
func whitelistAllocation(ctx kalpsdk.TransactionContextInterface, account string, saleID uint64, sale *Sale) (*big.Int, error) {
	snapshot, err := GetSnapshot(ctx, saleID, account)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return big.NewInt(0), nil
	}

	userPoint, ok := new(big.Int).SetString(snapshot.UserPoint, 10)
	if !ok {
		return nil, InvalidAmountError("user point", snapshot.UserPoint)
	}
	if userPoint.Sign() == 0 {
		return big.NewInt(0), nil
	}

	totalPoints, err := GetWhitelistPoints(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if totalPoints.Sign() == 0 {
		return big.NewInt(0), nil
	}

	totalSale, ok := new(big.Int).SetString(sale.TotalSale, 10)
	if !ok {
		return nil, InvalidAmountError("total sale", sale.TotalSale)
	}

	allocation := new(big.Int).Mul(totalSale, userPoint)
	allocation.Div(allocation, totalPoints)

	return allocation, nil
}

package launchpad

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// AddVesting appends a release increment, in basis points, to a sale's
// cumulative schedule. Releases only begin after the sale window closes.
// The corresponding share of totalSold moves from the operator's token
// balance into custody so later claims are always funded.
func (s *SmartContract) AddVesting(ctx kalpsdk.TransactionContextInterface, saleID uint64, deltaBps uint64) error {
	operator, err := requireOperator(ctx)
	if err != nil {
		return err
	}

	sale, err := GetSale(ctx, saleID)
	if err != nil {
		return err
	}

	if currentTime() < sale.EndTime {
		return fmt.Errorf("%w: sale %d still open", ErrPastSaleWindowRequired, saleID)
	}

	schedule, err := GetVestingSchedule(ctx, saleID)
	if err != nil {
		return err
	}
	if deltaBps > bpsDenominator-schedule.CumulativeBps {
		return fmt.Errorf("%w: %d + %d exceeds %d", ErrScheduleOverflow, schedule.CumulativeBps, deltaBps, bpsDenominator)
	}

	totalSold, ok := new(big.Int).SetString(sale.TotalSold, 10)
	if !ok {
		return InvalidAmountError("total sold", sale.TotalSold)
	}

	// Per-delta floors can sum below the per-user claim floors at the new
	// cumulative, so custody is funded as a difference of cumulative floors.
	newCumulativeBps := schedule.CumulativeBps + deltaBps
	fundedAmount := scheduledAmount(totalSold, newCumulativeBps)
	fundedAmount.Sub(fundedAmount, scheduledAmount(totalSold, schedule.CumulativeBps))

	if fundedAmount.Sign() > 0 {
		err = debitBalance(ctx, sale.SaleToken, operator, fundedAmount)
		if err != nil {
			return err
		}
		err = creditBalance(ctx, sale.SaleToken, custodyAccount, fundedAmount)
		if err != nil {
			return err
		}
	}

	schedule.CumulativeBps = newCumulativeBps
	err = SetVestingSchedule(ctx, saleID, schedule)
	if err != nil {
		return err
	}

	return EmitVestingAdded(ctx, saleID, deltaBps, schedule.CumulativeBps, fundedAmount.String())
}

// GetUnlockableAmount reports how much of an account's purchase is
// releasable right now: the scheduled share of bought minus what was
// already claimed, rounded down.
func (s *SmartContract) GetUnlockableAmount(ctx kalpsdk.TransactionContextInterface, account string, saleID uint64) (string, error) {
	_, err := GetSale(ctx, saleID)
	if err != nil {
		return "0", err
	}

	amount, err := unlockableAmount(ctx, saleID, account)
	if err != nil {
		return "0", err
	}

	return amount.String(), nil
}

func unlockableAmount(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) (*big.Int, error) {
	userInfo, err := GetUserInfo(ctx, saleID, account)
	if err != nil {
		return nil, err
	}
	if userInfo == nil {
		return big.NewInt(0), nil
	}

	schedule, err := GetVestingSchedule(ctx, saleID)
	if err != nil {
		return nil, err
	}

	claim, err := GetClaimRecord(ctx, saleID, account)
	if err != nil {
		return nil, err
	}

	bought, ok := new(big.Int).SetString(userInfo.Bought, 10)
	if !ok {
		return nil, InvalidAmountError("bought", userInfo.Bought)
	}

	unlocked := scheduledAmount(bought, schedule.CumulativeBps)
	claimed := scheduledAmount(bought, claim.ClaimedBps)

	return unlocked.Sub(unlocked, claimed), nil
}

func scheduledAmount(bought *big.Int, bps uint64) *big.Int {
	amount := new(big.Int).Mul(bought, new(big.Int).SetUint64(bps))
	return amount.Div(amount, big.NewInt(bpsDenominator))
}

// ClaimVestingToken releases an account's currently unlockable amount from
// custody. Callable by the account itself or by the operator on its
// behalf.
func (s *SmartContract) ClaimVestingToken(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) error {
	signer, err := GetUserId(ctx)
	if err != nil {
		return NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	if account == "" {
		account = signer
	}
	if normalizeAddress(signer) != normalizeAddress(account) {
		if _, err := requireOperator(ctx); err != nil {
			return err
		}
	}
	account = normalizeAddress(account)

	sale, err := GetSale(ctx, saleID)
	if err != nil {
		return err
	}

	schedule, err := GetVestingSchedule(ctx, saleID)
	if err != nil {
		return err
	}

	claim, err := GetClaimRecord(ctx, saleID, account)
	if err != nil {
		return err
	}

	amount, err := unlockableAmount(ctx, saleID, account)
	if err != nil {
		return err
	}

	if amount.Sign() == 0 {
		if schedule.CumulativeBps > 0 && claim.ClaimedBps == schedule.CumulativeBps {
			return fmt.Errorf("%w: %s already claimed %d bps for sale %d", ErrAlreadyClaimed, account, claim.ClaimedBps, saleID)
		}
		return fmt.Errorf("%w: sale %d account %s", ErrNothingToClaim, saleID, account)
	}

	err = debitBalance(ctx, sale.SaleToken, custodyAccount, amount)
	if err != nil {
		return err
	}
	err = creditBalance(ctx, sale.SaleToken, account, amount)
	if err != nil {
		return err
	}

	claim.ClaimedBps = schedule.CumulativeBps
	err = SetClaimRecord(ctx, saleID, account, claim)
	if err != nil {
		return err
	}

	return EmitVestingClaimed(ctx, saleID, account, amount.String(), claim.ClaimedBps)
}

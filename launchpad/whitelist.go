package launchpad

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// SetWhitelistWindow configures the registration window for a sale. The
// window may be rewritten any number of times until it opens.
func (s *SmartContract) SetWhitelistWindow(ctx kalpsdk.TransactionContextInterface, saleID uint64, opensAt, closesAt uint64) error {
	_, err := requireOperator(ctx)
	if err != nil {
		return err
	}

	_, err = GetSale(ctx, saleID)
	if err != nil {
		return err
	}

	if opensAt >= closesAt {
		return fmt.Errorf("%w: opensAt %d >= closesAt %d", ErrInvalidWindow, opensAt, closesAt)
	}

	existing, err := GetWhitelistWindow(ctx, saleID)
	if err != nil {
		return err
	}
	if existing != nil && currentTime() >= existing.OpensAt {
		return fmt.Errorf("%w: sale %d", ErrWindowAlreadyOpen, saleID)
	}

	err = SetWhitelistWindowState(ctx, saleID, &WhitelistWindow{OpensAt: opensAt, ClosesAt: closesAt})
	if err != nil {
		return err
	}

	return EmitWhitelistWindowSet(ctx, saleID, opensAt, closesAt)
}

// WhitelistMe registers the caller's signed eligibility snapshot for a
// sale. Registration is one-shot per (sale, account), permanently.
func (s *SmartContract) WhitelistMe(ctx kalpsdk.TransactionContextInterface, saleID uint64, staked, farmed string, signature string) error {
	account, err := GetUserId(ctx)
	if err != nil {
		return NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	_, err = GetSale(ctx, saleID)
	if err != nil {
		return err
	}

	window, err := GetWhitelistWindow(ctx, saleID)
	if err != nil {
		return err
	}
	now := currentTime()
	if window == nil || now < window.OpensAt || now >= window.ClosesAt {
		return fmt.Errorf("%w: sale %d", ErrOutsideWhitelistWindow, saleID)
	}

	stakedAmount, ok := new(big.Int).SetString(staked, 10)
	if !ok || stakedAmount.Sign() < 0 {
		return InvalidAmountError("staked", staked)
	}
	farmedAmount, ok := new(big.Int).SetString(farmed, 10)
	if !ok || farmedAmount.Sign() < 0 {
		return InvalidAmountError("farmed", farmed)
	}

	contractAddress, chainID, err := getChainConfig(ctx)
	if err != nil {
		return err
	}

	digest, err := WhitelistDigest(account, contractAddress, chainID, saleID, []*big.Int{stakedAmount, farmedAmount})
	if err != nil {
		return err
	}

	err = verifyApproverSignature(ctx, digest, common.FromHex(signature))
	if err != nil {
		return err
	}

	// userPoint = farmed*2 + staked; at least one unit of stake/farm is
	// required to register.
	userPoint := new(big.Int).Mul(farmedAmount, big.NewInt(farmedPointWeight))
	userPoint.Add(userPoint, stakedAmount)
	if userPoint.Sign() == 0 {
		return fmt.Errorf("%w: at least 1 unit of stake/farm required", ErrNotEligible)
	}

	existing, err := GetSnapshot(ctx, saleID, account)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s already registered for sale %d", ErrAlreadyRegistered, account, saleID)
	}

	err = SetSnapshot(ctx, saleID, account, &EligibilitySnapshot{
		StakedAmount: stakedAmount.String(),
		FarmedAmount: farmedAmount.String(),
		UserPoint:    userPoint.String(),
		Registered:   true,
	})
	if err != nil {
		return err
	}

	totalPoints, err := GetWhitelistPoints(ctx, saleID)
	if err != nil {
		return err
	}
	totalPoints.Add(totalPoints, userPoint)
	err = SetWhitelistPoints(ctx, saleID, totalPoints)
	if err != nil {
		return err
	}

	return EmitWhitelisted(ctx, saleID, account, stakedAmount.String(), farmedAmount.String(), userPoint.String())
}

// GetUserSnapshotPoints returns the registered eligibility score, "0" when
// the account never registered.
func (s *SmartContract) GetUserSnapshotPoints(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) (string, error) {
	snapshot, err := GetSnapshot(ctx, saleID, account)
	if err != nil {
		return "0", err
	}
	if snapshot == nil {
		return "0", nil
	}

	return snapshot.UserPoint, nil
}

func (s *SmartContract) GetUserSnapshotInfo(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) (*EligibilitySnapshot, error) {
	snapshot, err := GetSnapshot(ctx, saleID, account)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return &EligibilitySnapshot{StakedAmount: "0", FarmedAmount: "0", UserPoint: "0"}, nil
	}

	return snapshot, nil
}

package launchpad_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/N3RD-FINANCE/launchpad-contracts/launchpad"
)

func TestInitialize(t *testing.T) {
	t.Parallel()

	ctx, _ := newMockContext(operatorID)
	contract := &launchpad.SmartContract{}

	approverKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	approver := crypto.PubkeyToAddress(approverKey.PublicKey).Hex()

	require.NoError(t, contract.Initialize(ctx, approver, contractAddress, chainID))

	err = contract.Initialize(ctx, approver, contractAddress, chainID)
	require.ErrorIs(t, err, launchpad.ErrAlreadyInitialized)
}

func TestInitializeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		approver        string
		contractAddress string
		chainID         uint64
		expectedErr     error
	}{
		{
			name:            "bad approver",
			approver:        "not-an-address",
			contractAddress: contractAddress,
			chainID:         chainID,
			expectedErr:     launchpad.ErrInvalidUserAddress,
		},
		{
			name:            "bad contract address",
			approver:        "0x399640c741c38d2aa881ad06406d9fc433812f31",
			contractAddress: "xyz",
			chainID:         chainID,
			expectedErr:     launchpad.ErrInvalidTokenAddress,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, _ := newMockContext(operatorID)
			contract := &launchpad.SmartContract{}

			err := contract.Initialize(ctx, tt.approver, tt.contractAddress, tt.chainID)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestOperatorGuards(t *testing.T) {
	t.Parallel()

	contract, ctx, _ := setupContract(t)

	SetUserID(ctx, buyerID)
	err := contract.SetAllowedToken(ctx, saleToken, true)
	require.ErrorIs(t, err, launchpad.ErrNotOperator)

	now := uint64(time.Now().Unix())
	_, err = contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now, now+3600, "1000000000000000", "0", "", "", false)
	require.ErrorIs(t, err, launchpad.ErrNotOperator)

	// Before Initialize nothing operator-gated works at all.
	freshCtx, _ := newMockContext(operatorID)
	err = (&launchpad.SmartContract{}).SetAllowedToken(freshCtx, saleToken, true)
	require.ErrorIs(t, err, launchpad.ErrNotInitialized)
}

func TestCreateSale(t *testing.T) {
	t.Parallel()

	contract, ctx, _ := setupContract(t)
	now := uint64(time.Now().Unix())

	// Token must be allowed before a sale can be created with it.
	_, err := contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now, now+3600, "1000000000000000", "0", "", "", false)
	require.ErrorIs(t, err, launchpad.ErrTokenNotAllowed)

	require.NoError(t, contract.SetAllowedToken(ctx, saleToken, true))

	_, err = contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now+3600, now, "1000000000000000", "0", "", "", false)
	require.ErrorIs(t, err, launchpad.ErrInvalidWindow)

	_, err = contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now, now+3600, "1000000000000000", "0", "Quadratic", "", false)
	require.ErrorIs(t, err, launchpad.ErrInvalidStrategy)

	_, err = contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now, now+3600, "1000000000000000", "0", "", "-1", false)
	require.EqualError(t, err, launchpad.InvalidAmountError("strategy cap", "-1").Error())

	saleID, err := contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now, now+3600, "1000000000000000", "0", "", "", false)
	require.NoError(t, err)
	require.Equal(t, uint64(0), saleID)

	secondID, err := contract.CreateSale(ctx, saleToken, recipientID, toWei(500), now, now+3600, "1000000000000000", "0", launchpad.StrategyLinear, toWei(50), false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), secondID)

	length, err := contract.SalesLength(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), length)

	sales, err := contract.AllSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	require.Equal(t, toWei(1000), sales[0].TotalSale)
	require.Equal(t, "0", sales[0].TotalSold)
	// Omitted strategy defaults to Flat capped at totalSale.
	require.Equal(t, launchpad.StrategyFlat, sales[0].Strategy.Type)
	require.Equal(t, toWei(1000), sales[0].Strategy.Cap)
	require.Equal(t, launchpad.StrategyLinear, sales[1].Strategy.Type)
}

func TestBuyTokenWithEthFlatAllocation(t *testing.T) {
	t.Parallel()

	contract, ctx, _ := setupContract(t)
	saleID := createOpenSale(t, contract, ctx, toWei(1000), "1000000000000000", toWei(1000), false)

	SetUserID(ctx, buyerID)

	// 0.5 native units at 0.001 per token buys 500 * 10^18 units.
	require.NoError(t, contract.BuyTokenWithEth(ctx, saleID, halfEth, ""))

	userInfo, err := contract.GetUserInfo(ctx, saleID, buyerID)
	require.NoError(t, err)
	require.Equal(t, toWei(500), userInfo.Bought)
	require.Equal(t, toWei(1000), userInfo.Alloc)

	// A purchase that would cross the cap is rejected whole; bought is
	// unchanged.
	err = contract.BuyTokenWithEth(ctx, saleID, toWei(1), "")
	require.ErrorIs(t, err, launchpad.ErrAllocationExceeded)

	userInfo, err = contract.GetUserInfo(ctx, saleID, buyerID)
	require.NoError(t, err)
	require.Equal(t, toWei(500), userInfo.Bought)

	// Topping up to exactly the cap succeeds.
	require.NoError(t, contract.BuyTokenWithEth(ctx, saleID, halfEth, ""))

	userInfo, err = contract.GetUserInfo(ctx, saleID, buyerID)
	require.NoError(t, err)
	require.Equal(t, toWei(1000), userInfo.Bought)

	// Any further purchase fails.
	err = contract.BuyTokenWithEth(ctx, saleID, "1000000000000000", "")
	require.ErrorIs(t, err, launchpad.ErrAllocationExceeded)

	sale, err := contract.GetSale(ctx, saleID)
	require.NoError(t, err)
	require.Equal(t, toWei(1000), sale.TotalSold)

	// The payment was forwarded to the fund recipient.
	balance, err := contract.BalanceOf(ctx, "native", recipientID)
	require.NoError(t, err)
	require.Equal(t, toWei(1), balance)

	require.Contains(t, ctx.Events(), "TokensPurchased")
}

func TestBuyTokenWithEthGuards(t *testing.T) {
	t.Parallel()

	contract, ctx, _ := setupContract(t)
	saleID := createOpenSale(t, contract, ctx, toWei(1000), "1000000000000000", toWei(1000), false)

	SetUserID(ctx, buyerID)

	err := contract.BuyTokenWithEth(ctx, 42, halfEth, "")
	require.ErrorIs(t, err, launchpad.ErrSaleNotFound)

	// Revoking the token blocks purchases on the existing sale.
	SetUserID(ctx, operatorID)
	require.NoError(t, contract.SetAllowedToken(ctx, saleToken, false))
	SetUserID(ctx, buyerID)
	err = contract.BuyTokenWithEth(ctx, saleID, halfEth, "")
	require.ErrorIs(t, err, launchpad.ErrTokenNotAllowed)

	SetUserID(ctx, operatorID)
	require.NoError(t, contract.SetAllowedToken(ctx, saleToken, true))
	SetUserID(ctx, buyerID)
	require.NoError(t, contract.BuyTokenWithEth(ctx, saleID, halfEth, ""))
}

func TestBuyTokenWithEthWindow(t *testing.T) {
	t.Parallel()

	contract, ctx, _ := setupContract(t)
	require.NoError(t, contract.SetAllowedToken(ctx, saleToken, true))

	now := uint64(time.Now().Unix())

	// Sale that has not started yet.
	futureID, err := contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now+3600, now+7200, "1000000000000000", "0", "", "", false)
	require.NoError(t, err)

	// Sale whose window ends right now: a purchase at endTime or later
	// must fail.
	endedID, err := contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now-3600, now, "1000000000000000", "0", "", "", false)
	require.NoError(t, err)

	// Sale starting exactly now: a purchase at startTime succeeds.
	openID, err := contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now, now+3600, "1000000000000000", "0", "", "", false)
	require.NoError(t, err)

	SetUserID(ctx, buyerID)

	err = contract.BuyTokenWithEth(ctx, futureID, halfEth, "")
	require.ErrorIs(t, err, launchpad.ErrNotInSaleWindow)

	err = contract.BuyTokenWithEth(ctx, endedID, halfEth, "")
	require.ErrorIs(t, err, launchpad.ErrNotInSaleWindow)

	require.NoError(t, contract.BuyTokenWithEth(ctx, openID, halfEth, ""))
}

func TestBuyTokenWithEthMinimumPurchase(t *testing.T) {
	t.Parallel()

	contract, ctx, _ := setupContract(t)
	require.NoError(t, contract.SetAllowedToken(ctx, saleToken, true))

	now := uint64(time.Now().Unix())
	saleID, err := contract.CreateSale(ctx, saleToken, recipientID, toWei(1000), now, now+3600, "1000000000000000", toWei(10), "", "", false)
	require.NoError(t, err)

	SetUserID(ctx, buyerID)

	// 0.001 native units buys a single token unit, below the 10-unit floor.
	err = contract.BuyTokenWithEth(ctx, saleID, "1000000000000000", "")
	require.ErrorIs(t, err, launchpad.ErrBelowMinimumPurchase)

	require.NoError(t, contract.BuyTokenWithEth(ctx, saleID, halfEth, ""))
}

func TestBuyTokenWithEthSignatureGated(t *testing.T) {
	t.Parallel()

	contract, ctx, approverKey := setupContract(t)
	saleID := createOpenSale(t, contract, ctx, toWei(1000), "1000000000000000", toWei(1000), true)

	SetUserID(ctx, buyerID)

	err := contract.BuyTokenWithEth(ctx, saleID, halfEth, "")
	require.ErrorIs(t, err, launchpad.ErrInvalidSignature)

	// A signature from an untrusted key is rejected.
	strangerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	err = contract.BuyTokenWithEth(ctx, saleID, halfEth, signPurchase(t, strangerKey, buyerID, saleID))
	require.ErrorIs(t, err, launchpad.ErrInvalidSignature)

	// A signature for a different buyer is rejected.
	err = contract.BuyTokenWithEth(ctx, saleID, halfEth, signPurchase(t, approverKey, secondBuyer, saleID))
	require.ErrorIs(t, err, launchpad.ErrInvalidSignature)

	signature := signPurchase(t, approverKey, buyerID, saleID)
	require.NoError(t, contract.BuyTokenWithEth(ctx, saleID, halfEth, signature))

	// The clearance is single-use per (sale, buyer).
	err = contract.BuyTokenWithEth(ctx, saleID, halfEth, signature)
	require.ErrorIs(t, err, launchpad.ErrSignatureAlreadyUsed)
}

func TestPurchaseConservation(t *testing.T) {
	t.Parallel()

	contract, ctx, _ := setupContract(t)
	saleID := createOpenSale(t, contract, ctx, toWei(1000), "1000000000000000", toWei(600), false)

	SetUserID(ctx, buyerID)
	require.NoError(t, contract.BuyTokenWithEth(ctx, saleID, halfEth, ""))

	SetUserID(ctx, secondBuyer)
	require.NoError(t, contract.BuyTokenWithEth(ctx, saleID, "100000000000000000", "")) // 0.1 native -> 100 units

	sale, err := contract.GetSale(ctx, saleID)
	require.NoError(t, err)

	totalBought := big.NewInt(0)
	for _, account := range []string{buyerID, secondBuyer} {
		userInfo, err := contract.GetUserInfo(ctx, saleID, account)
		require.NoError(t, err)

		bought, ok := new(big.Int).SetString(userInfo.Bought, 10)
		require.True(t, ok)
		totalBought.Add(totalBought, bought)
	}

	require.Equal(t, sale.TotalSold, totalBought.String())

	totalSale, ok := new(big.Int).SetString(sale.TotalSale, 10)
	require.True(t, ok)
	require.LessOrEqual(t, totalBought.Cmp(totalSale), 0)
}

func TestGetAllocationMatchesPurchase(t *testing.T) {
	t.Parallel()

	contract, ctx, _ := setupContract(t)
	saleID := createOpenSale(t, contract, ctx, toWei(1000), "1000000000000000", toWei(250), false)

	SetUserID(ctx, buyerID)

	projected, err := contract.GetAllocation(ctx, buyerID, saleID)
	require.NoError(t, err)
	require.Equal(t, toWei(250), projected)

	require.NoError(t, contract.BuyTokenWithEth(ctx, saleID, "100000000000000000", ""))

	userInfo, err := contract.GetUserInfo(ctx, saleID, buyerID)
	require.NoError(t, err)
	require.Equal(t, projected, userInfo.Alloc)
}

package launchpad_test

import (
	"crypto/ecdsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/N3RD-FINANCE/launchpad-contracts/launchpad"
	"github.com/N3RD-FINANCE/launchpad-contracts/launchpad/mocks"
)

const (
	operatorID  = "0b87970433b22494faff1cc7a819e71bddc7880c"
	buyerID     = "399640c741c38d2aa881ad06406d9fc433812f31"
	secondBuyer = "5aeda56215b167893e80b4fe645ba6d5bab767de"
	recipientID = "ab8483f64d9c6d1ecf9b849ae677dd3315835cb2"

	saleToken       = "0x32C868F6318D6334B2250F323D914Bc2239E4EeE"
	contractAddress = "0x1f9090aaE28b8a3dCeaDf281B0F12828e676c326"
	chainID         = uint64(1337)
)

func toWei(amount int64) string {
	wei := new(big.Int).Mul(big.NewInt(amount), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	return wei.String()
}

// halfEth is 0.5 native units in wei.
var halfEth = new(big.Int).Div(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), big.NewInt(2)).String()

func SetUserID(transactionContext *mocks.TransactionContext, userID string) {
	completeID := fmt.Sprintf("x509::CN=%s,O=Organization,L=City,ST=State,C=Country", userID)
	b64ID := base64.StdEncoding.EncodeToString([]byte(completeID))

	clientIdentity := &mocks.ClientIdentity{}
	clientIdentity.GetIDReturns(b64ID, nil)
	transactionContext.GetClientIdentityReturns(clientIdentity)
}

func newMockContext(userID string) (*mocks.TransactionContext, map[string][]byte) {
	worldState := map[string][]byte{}
	ctx := &mocks.TransactionContext{}
	ctx.GetStateStub = func(key string) ([]byte, error) {
		return worldState[key], nil
	}
	ctx.PutStateWithoutKYCStub = func(key string, value []byte) error {
		worldState[key] = value
		return nil
	}
	SetUserID(ctx, userID)
	return ctx, worldState
}

// setupContract initializes the contract with operatorID as operator and a
// freshly generated approver key.
func setupContract(t *testing.T) (*launchpad.SmartContract, *mocks.TransactionContext, *ecdsa.PrivateKey) {
	t.Helper()

	ctx, _ := newMockContext(operatorID)
	contract := &launchpad.SmartContract{}

	approverKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	approver := crypto.PubkeyToAddress(approverKey.PublicKey).Hex()

	require.NoError(t, contract.Initialize(ctx, approver, contractAddress, chainID))

	return contract, ctx, approverKey
}

func signDigest(t *testing.T, key *ecdsa.PrivateKey, digest []byte) string {
	t.Helper()

	signature, err := crypto.Sign(accounts.TextHash(digest), key)
	require.NoError(t, err)
	signature[crypto.RecoveryIDOffset] += 27

	return hexutil.Encode(signature)
}

func signWhitelist(t *testing.T, key *ecdsa.PrivateKey, account string, saleID uint64, staked, farmed string) string {
	t.Helper()

	stakedAmount, ok := new(big.Int).SetString(staked, 10)
	require.True(t, ok)
	farmedAmount, ok := new(big.Int).SetString(farmed, 10)
	require.True(t, ok)

	digest, err := launchpad.WhitelistDigest(account, contractAddress, chainID, saleID, []*big.Int{stakedAmount, farmedAmount})
	require.NoError(t, err)

	return signDigest(t, key, digest)
}

func signPurchase(t *testing.T, key *ecdsa.PrivateKey, account string, saleID uint64) string {
	t.Helper()

	digest, err := launchpad.PurchaseDigest(account, contractAddress, chainID, saleID)
	require.NoError(t, err)

	return signDigest(t, key, digest)
}

// createOpenSale allows the token and creates a Flat sale whose window is
// open right now.
func createOpenSale(t *testing.T, contract *launchpad.SmartContract, ctx *mocks.TransactionContext, totalSale, unitPrice, cap string, requiresSig bool) uint64 {
	t.Helper()

	SetUserID(ctx, operatorID)
	require.NoError(t, contract.SetAllowedToken(ctx, saleToken, true))

	now := uint64(time.Now().Unix())
	saleID, err := contract.CreateSale(ctx, saleToken, recipientID, totalSale, now, now+3600, unitPrice, "0", launchpad.StrategyFlat, cap, requiresSig)
	require.NoError(t, err)

	return saleID
}

// seedClosedSale writes a sale whose window already ended, with bought
// units for buyerID, so vesting paths can run without waiting.
func seedClosedSale(t *testing.T, ctx *mocks.TransactionContext, totalSold string) uint64 {
	t.Helper()

	now := uint64(time.Now().Unix())
	sale := &launchpad.Sale{
		SaleToken:     saleToken,
		FundRecipient: recipientID,
		TotalSale:     totalSold,
		TotalSold:     totalSold,
		StartTime:     now - 7200,
		EndTime:       now - 3600,
		UnitPrice:     "1000000000000000",
		MinUnit:       "0",
		Strategy:      &launchpad.AllocationStrategy{Type: launchpad.StrategyFlat, Cap: totalSold},
	}
	require.NoError(t, launchpad.SetSale(ctx, 0, sale))
	require.NoError(t, launchpad.SetSalesLength(ctx, 1))
	require.NoError(t, launchpad.SetUserInfo(ctx, 0, buyerID, &launchpad.UserInfo{Alloc: totalSold, Bought: totalSold}))

	return 0
}

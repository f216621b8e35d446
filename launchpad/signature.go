package launchpad

import (
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// Signed payloads always carry the verifying contract's address and the
// chain id so a signature cannot be replayed against another deployment or
// network.

var (
	addressType, _      = abi.NewType("address", "", nil)
	uint256Type, _      = abi.NewType("uint256", "", nil)
	uint256ArrayType, _ = abi.NewType("uint256[]", "", nil)

	whitelistArguments = abi.Arguments{
		{Type: addressType},
		{Type: addressType},
		{Type: uint256Type},
		{Type: uint256Type},
		{Type: uint256ArrayType},
	}

	purchaseArguments = abi.Arguments{
		{Type: addressType},
		{Type: addressType},
		{Type: uint256Type},
		{Type: uint256Type},
	}
)

// WhitelistDigest hashes the tuple an approver signs to attest an account's
// stake/farm snapshot for a sale.
func WhitelistDigest(account, contractAddress string, chainID uint64, saleID uint64, amountsSnapshot []*big.Int) ([]byte, error) {
	encoded, err := whitelistArguments.Pack(
		common.HexToAddress(account),
		common.HexToAddress(contractAddress),
		new(big.Int).SetUint64(chainID),
		new(big.Int).SetUint64(saleID),
		amountsSnapshot,
	)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to encode whitelist payload", err)
	}

	return crypto.Keccak256(encoded), nil
}

// PurchaseDigest hashes the tuple an approver signs to clear an account for
// a signature-gated purchase.
func PurchaseDigest(account, contractAddress string, chainID uint64, saleID uint64) ([]byte, error) {
	encoded, err := purchaseArguments.Pack(
		common.HexToAddress(account),
		common.HexToAddress(contractAddress),
		new(big.Int).SetUint64(chainID),
		new(big.Int).SetUint64(saleID),
	)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to encode purchase payload", err)
	}

	return crypto.Keccak256(encoded), nil
}

// RecoverSigner recovers the address that produced a 65-byte [R||S||V]
// signature over the personal-sign hash of digest. V may be 0/1 or 27/28.
func RecoverSigner(digest, signature []byte) (string, error) {
	if len(signature) != crypto.SignatureLength {
		return "", fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(signature))
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash(digest), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}

func verifyApproverSignature(ctx kalpsdk.TransactionContextInterface, digest, signature []byte) error {
	approverAsBytes, err := ctx.GetState(approverKey)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to get approver", err)
	}
	if approverAsBytes == nil {
		return ErrNotInitialized
	}

	recovered, err := RecoverSigner(digest, signature)
	if err != nil {
		return err
	}

	if normalizeAddress(recovered) != normalizeAddress(string(approverAsBytes)) {
		return fmt.Errorf("%w: recovered %s", ErrInvalidSignature, recovered)
	}

	return nil
}

func getChainConfig(ctx kalpsdk.TransactionContextInterface) (contractAddress string, chainID uint64, err error) {
	contractAsBytes, err := ctx.GetState(contractAddressKey)
	if err != nil {
		return "", 0, NewCustomError(http.StatusInternalServerError, "failed to get contract address", err)
	}
	if contractAsBytes == nil {
		return "", 0, ErrNotInitialized
	}

	chainIDAsBytes, err := ctx.GetState(chainIDKey)
	if err != nil {
		return "", 0, NewCustomError(http.StatusInternalServerError, "failed to get chain id", err)
	}
	if chainIDAsBytes == nil {
		return "", 0, ErrNotInitialized
	}

	chainID, err = strconv.ParseUint(string(chainIDAsBytes), 10, 64)
	if err != nil {
		return "", 0, NewCustomError(http.StatusInternalServerError, "failed to parse chain id", err)
	}

	return string(contractAsBytes), chainID, nil
}

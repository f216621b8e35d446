package launchpad

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// GetUserId extracts the caller's address from the x509 CN of the client
// identity.
func GetUserId(ctx kalpsdk.TransactionContextInterface) (string, error) {
	b64ID, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to read clientID: %v", err)
	}

	decodeID, err := base64.StdEncoding.DecodeString(b64ID)
	if err != nil {
		return "", fmt.Errorf("failed to base64 decode clientID: %v", err)
	}

	completeID := string(decodeID)
	userID := completeID[(strings.Index(completeID, "x509::CN=") + 9):strings.Index(completeID, ",")]

	if !IsUserAddressValid(userID) {
		return "", fmt.Errorf("%w: %s", ErrInvalidUserAddress, userID)
	}

	return userID, nil
}

func IsUserAddressValid(address string) bool {
	if address == "" {
		return false
	}

	isValid, _ := regexp.MatchString(hexAddressRegex, address)
	return isValid
}

func IsTokenAddressValid(address string) bool {
	if address == "" {
		return false
	}

	isValid, _ := regexp.MatchString(tokenAddressRegex, address)
	return isValid
}

// normalizeAddress lowercases an address and strips any 0x prefix so two
// spellings of the same address hit the same state keys.
func normalizeAddress(address string) string {
	return strings.TrimPrefix(strings.ToLower(address), "0x")
}

func Decimals() uint64 {
	return 18
}

var tokenUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(Decimals())), nil)

// ConvertToWei scales a whole-token amount by 10^18.
func ConvertToWei(amount uint64) string {
	amountBigInt := new(big.Int).SetUint64(amount)
	weiAmount := new(big.Int).Mul(amountBigInt, tokenUnit)
	return weiAmount.String()
}

func currentTime() uint64 {
	return uint64(time.Now().Unix())
}

// requireOperator returns the caller address after checking it against the
// operator recorded at Initialize.
func requireOperator(ctx kalpsdk.TransactionContextInterface) (string, error) {
	signer, err := GetUserId(ctx)
	if err != nil {
		return "", NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	operatorAsBytes, err := ctx.GetState(operatorKey)
	if err != nil {
		return "", NewCustomError(http.StatusInternalServerError, "failed to get operator", err)
	}
	if operatorAsBytes == nil {
		return "", ErrNotInitialized
	}

	if normalizeAddress(signer) != normalizeAddress(string(operatorAsBytes)) {
		return "", fmt.Errorf("%w: %s", ErrNotOperator, signer)
	}

	return signer, nil
}

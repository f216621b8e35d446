package launchpad

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// The contract tracks token and native-currency holdings in an internal
// balance sub-ledger. Debits and credits here stand in for the external
// transfer mechanics the launchpad relies on.

func getBalance(ctx kalpsdk.TransactionContextInterface, token, account string) (*big.Int, error) {
	balanceKey := fmt.Sprintf("balance_%s_%s", normalizeAddress(token), normalizeAddress(account))
	balanceAsBytes, err := ctx.GetState(balanceKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get balance with Key %s", balanceKey), err)
	}

	balance := big.NewInt(0)
	if balanceAsBytes != nil {
		_, success := balance.SetString(string(balanceAsBytes), 10)
		if !success {
			return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to parse balance for %s", account), nil)
		}
	}

	return balance, nil
}

func setBalance(ctx kalpsdk.TransactionContextInterface, token, account string, balance *big.Int) error {
	balanceKey := fmt.Sprintf("balance_%s_%s", normalizeAddress(token), normalizeAddress(account))
	balanceAsBytes, err := balance.MarshalText()
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal balance", err)
	}

	err = ctx.PutStateWithoutKYC(balanceKey, balanceAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set balance with Key %s", balanceKey), err)
	}

	return nil
}

func creditBalance(ctx kalpsdk.TransactionContextInterface, token, account string, amount *big.Int) error {
	balance, err := getBalance(ctx, token, account)
	if err != nil {
		return err
	}

	balance.Add(balance, amount)

	return setBalance(ctx, token, account, balance)
}

func debitBalance(ctx kalpsdk.TransactionContextInterface, token, account string, amount *big.Int) error {
	balance, err := getBalance(ctx, token, account)
	if err != nil {
		return err
	}

	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, account, balance.String(), token, amount.String())
	}

	balance.Sub(balance, amount)

	return setBalance(ctx, token, account, balance)
}

// FundTokenBalance credits the operator's internal balance for a token,
// standing in for the token transfer that moves sale inventory under the
// launchpad's control.
func (s *SmartContract) FundTokenBalance(ctx kalpsdk.TransactionContextInterface, token string, amount string) error {
	operator, err := requireOperator(ctx)
	if err != nil {
		return err
	}

	if !IsTokenAddressValid(token) {
		return fmt.Errorf("%w: %s", ErrInvalidTokenAddress, token)
	}

	amountInInt, ok := new(big.Int).SetString(amount, 10)
	if !ok || amountInInt.Sign() <= 0 {
		return InvalidAmountError("token funding", amount)
	}

	return creditBalance(ctx, token, operator, amountInInt)
}

// BalanceOf reports an account's internal balance for a token. The native
// pseudo-token "native" holds forwarded purchase payments.
func (s *SmartContract) BalanceOf(ctx kalpsdk.TransactionContextInterface, token, account string) (string, error) {
	balance, err := getBalance(ctx, token, account)
	if err != nil {
		return "0", err
	}

	return balance.String(), nil
}

package launchpad

import (
	"encoding/json"
	"fmt"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

type SaleCreatedEvent struct {
	SaleID        uint64 `json:"saleId"`
	SaleToken     string `json:"saleToken"`
	FundRecipient string `json:"fundRecipient"`
	TotalSale     string `json:"totalSale"`
	StartTime     uint64 `json:"startTime"`
	EndTime       uint64 `json:"endTime"`
	UnitPrice     string `json:"unitPrice"`
	Strategy      string `json:"strategy"`
}

type AllowedTokenEvent struct {
	Token   string `json:"token"`
	Allowed bool   `json:"allowed"`
}

type WhitelistWindowSetEvent struct {
	SaleID   uint64 `json:"saleId"`
	OpensAt  uint64 `json:"opensAt"`
	ClosesAt uint64 `json:"closesAt"`
}

type WhitelistedEvent struct {
	SaleID       uint64 `json:"saleId"`
	Account      string `json:"account"`
	StakedAmount string `json:"stakedAmount"`
	FarmedAmount string `json:"farmedAmount"`
	UserPoint    string `json:"userPoint"`
}

type TokensPurchasedEvent struct {
	SaleID     uint64 `json:"saleId"`
	Buyer      string `json:"buyer"`
	AmountSent string `json:"amountSent"`
	Units      string `json:"units"`
	TotalSold  string `json:"totalSold"`
}

type VestingAddedEvent struct {
	SaleID        uint64 `json:"saleId"`
	DeltaBps      uint64 `json:"deltaBps"`
	CumulativeBps uint64 `json:"cumulativeBps"`
	FundedAmount  string `json:"fundedAmount"`
}

type VestingClaimedEvent struct {
	SaleID     uint64 `json:"saleId"`
	Account    string `json:"account"`
	Amount     string `json:"amount"`
	ClaimedBps uint64 `json:"claimedBps"`
}

func emitEvent(sdk kalpsdk.TransactionContextInterface, name string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to obtain JSON encoding: %v", err)
	}

	err = sdk.SetEvent(name, payloadJSON)
	if err != nil {
		return fmt.Errorf("failed to set event: %v", err)
	}

	return nil
}

func EmitSaleCreated(sdk kalpsdk.TransactionContextInterface, saleID uint64, sale *Sale) error {
	strategy := StrategyFlat
	if sale.Strategy != nil {
		strategy = sale.Strategy.Type
	}

	return emitEvent(sdk, saleCreatedEvent, SaleCreatedEvent{
		SaleID:        saleID,
		SaleToken:     sale.SaleToken,
		FundRecipient: sale.FundRecipient,
		TotalSale:     sale.TotalSale,
		StartTime:     sale.StartTime,
		EndTime:       sale.EndTime,
		UnitPrice:     sale.UnitPrice,
		Strategy:      strategy,
	})
}

func EmitAllowedTokenSet(sdk kalpsdk.TransactionContextInterface, token string, allowed bool) error {
	return emitEvent(sdk, allowedTokenEvent, AllowedTokenEvent{Token: token, Allowed: allowed})
}

func EmitWhitelistWindowSet(sdk kalpsdk.TransactionContextInterface, saleID, opensAt, closesAt uint64) error {
	return emitEvent(sdk, whitelistWindowSetEvent, WhitelistWindowSetEvent{SaleID: saleID, OpensAt: opensAt, ClosesAt: closesAt})
}

func EmitWhitelisted(sdk kalpsdk.TransactionContextInterface, saleID uint64, account, staked, farmed, userPoint string) error {
	return emitEvent(sdk, whitelistedEvent, WhitelistedEvent{
		SaleID:       saleID,
		Account:      account,
		StakedAmount: staked,
		FarmedAmount: farmed,
		UserPoint:    userPoint,
	})
}

func EmitTokensPurchased(sdk kalpsdk.TransactionContextInterface, saleID uint64, buyer, amountSent, units, totalSold string) error {
	return emitEvent(sdk, tokensPurchasedEvent, TokensPurchasedEvent{
		SaleID:     saleID,
		Buyer:      buyer,
		AmountSent: amountSent,
		Units:      units,
		TotalSold:  totalSold,
	})
}

func EmitVestingAdded(sdk kalpsdk.TransactionContextInterface, saleID, deltaBps, cumulativeBps uint64, fundedAmount string) error {
	return emitEvent(sdk, vestingAddedEvent, VestingAddedEvent{
		SaleID:        saleID,
		DeltaBps:      deltaBps,
		CumulativeBps: cumulativeBps,
		FundedAmount:  fundedAmount,
	})
}

func EmitVestingClaimed(sdk kalpsdk.TransactionContextInterface, saleID uint64, account, amount string, claimedBps uint64) error {
	return emitEvent(sdk, vestingClaimedEvent, VestingClaimedEvent{
		SaleID:     saleID,
		Account:    account,
		Amount:     amount,
		ClaimedBps: claimedBps,
	})
}

package launchpad

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// AllocationStrategy is resolved once at sale creation and stored on the
// Sale; it is never re-derived afterwards.
type AllocationStrategy struct {
	Type string `json:"type"`
	Cap  string `json:"cap"`
}

type Sale struct {
	SaleToken     string              `json:"saleToken"`
	FundRecipient string              `json:"fundRecipient"`
	TotalSale     string              `json:"totalSale"`
	TotalSold     string              `json:"totalSold"`
	StartTime     uint64              `json:"startTime"`
	EndTime       uint64              `json:"endTime"`
	UnitPrice     string              `json:"unitPrice"`
	MinUnit       string              `json:"minUnit"`
	Strategy      *AllocationStrategy `json:"strategy,omitempty"`
	RequiresSig   bool                `json:"requiresSig"`
}

// UserInfo is created on an account's first successful purchase in a sale.
// Alloc is computed once at that point and never recomputed.
type UserInfo struct {
	Alloc  string `json:"alloc"`
	Bought string `json:"bought"`
}

type VestingSchedule struct {
	CumulativeBps uint64 `json:"cumulativeBps"`
}

type ClaimRecord struct {
	ClaimedBps uint64 `json:"claimedBps"`
}

type WhitelistWindow struct {
	OpensAt  uint64 `json:"opensAt"`
	ClosesAt uint64 `json:"closesAt"`
}

type EligibilitySnapshot struct {
	StakedAmount string `json:"stakedAmount"`
	FarmedAmount string `json:"farmedAmount"`
	UserPoint    string `json:"userPoint"`
	Registered   bool   `json:"registered"`
}

func GetSale(ctx kalpsdk.TransactionContextInterface, saleID uint64) (*Sale, error) {
	saleKey := fmt.Sprintf("sale_%d", saleID)
	saleAsBytes, err := ctx.GetState(saleKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get sale with Key %s", saleKey), err)
	}
	if saleAsBytes == nil {
		return nil, fmt.Errorf("%w: sale %d", ErrSaleNotFound, saleID)
	}

	var sale Sale
	err = json.Unmarshal(saleAsBytes, &sale)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal sale", err)
	}

	return &sale, nil
}

func SetSale(ctx kalpsdk.TransactionContextInterface, saleID uint64, sale *Sale) error {
	saleKey := fmt.Sprintf("sale_%d", saleID)
	saleAsBytes, err := json.Marshal(sale)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal sale", err)
	}

	err = ctx.PutStateWithoutKYC(saleKey, saleAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set sale", err)
	}

	return nil
}

func GetSalesLength(ctx kalpsdk.TransactionContextInterface) (uint64, error) {
	lengthAsBytes, err := ctx.GetState(salesLengthKey)
	if err != nil {
		return 0, NewCustomError(http.StatusInternalServerError, "failed to get sales length", err)
	}
	if lengthAsBytes == nil {
		return 0, nil
	}

	length, err := strconv.ParseUint(string(lengthAsBytes), 10, 64)
	if err != nil {
		return 0, NewCustomError(http.StatusInternalServerError, "failed to parse sales length", err)
	}

	return length, nil
}

func SetSalesLength(ctx kalpsdk.TransactionContextInterface, length uint64) error {
	err := ctx.PutStateWithoutKYC(salesLengthKey, []byte(strconv.FormatUint(length, 10)))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set sales length", err)
	}

	return nil
}

// GetUserInfo returns nil without error when the account has never
// purchased in the sale.
func GetUserInfo(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) (*UserInfo, error) {
	userInfoKey := fmt.Sprintf("userinfo_%d_%s", saleID, normalizeAddress(account))
	userInfoAsBytes, err := ctx.GetState(userInfoKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get user info with Key %s", userInfoKey), err)
	}
	if userInfoAsBytes == nil {
		return nil, nil
	}

	var userInfo UserInfo
	err = json.Unmarshal(userInfoAsBytes, &userInfo)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal user info", err)
	}

	return &userInfo, nil
}

func SetUserInfo(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string, userInfo *UserInfo) error {
	userInfoKey := fmt.Sprintf("userinfo_%d_%s", saleID, normalizeAddress(account))
	userInfoAsBytes, err := json.Marshal(userInfo)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal user info", err)
	}

	err = ctx.PutStateWithoutKYC(userInfoKey, userInfoAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set user info", err)
	}

	return nil
}

func GetVestingSchedule(ctx kalpsdk.TransactionContextInterface, saleID uint64) (*VestingSchedule, error) {
	scheduleKey := fmt.Sprintf("vestingschedule_%d", saleID)
	scheduleAsBytes, err := ctx.GetState(scheduleKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get vesting schedule with Key %s", scheduleKey), err)
	}
	if scheduleAsBytes == nil {
		return &VestingSchedule{}, nil
	}

	var schedule VestingSchedule
	err = json.Unmarshal(scheduleAsBytes, &schedule)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal vesting schedule", err)
	}

	return &schedule, nil
}

func SetVestingSchedule(ctx kalpsdk.TransactionContextInterface, saleID uint64, schedule *VestingSchedule) error {
	scheduleKey := fmt.Sprintf("vestingschedule_%d", saleID)
	scheduleAsBytes, err := json.Marshal(schedule)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal vesting schedule", err)
	}

	err = ctx.PutStateWithoutKYC(scheduleKey, scheduleAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set vesting schedule", err)
	}

	return nil
}

func GetClaimRecord(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) (*ClaimRecord, error) {
	claimKey := fmt.Sprintf("claimrecord_%d_%s", saleID, normalizeAddress(account))
	claimAsBytes, err := ctx.GetState(claimKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get claim record with Key %s", claimKey), err)
	}
	if claimAsBytes == nil {
		return &ClaimRecord{}, nil
	}

	var claim ClaimRecord
	err = json.Unmarshal(claimAsBytes, &claim)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal claim record", err)
	}

	return &claim, nil
}

func SetClaimRecord(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string, claim *ClaimRecord) error {
	claimKey := fmt.Sprintf("claimrecord_%d_%s", saleID, normalizeAddress(account))
	claimAsBytes, err := json.Marshal(claim)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal claim record", err)
	}

	err = ctx.PutStateWithoutKYC(claimKey, claimAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set claim record", err)
	}

	return nil
}

// GetWhitelistWindow returns nil without error when no window has been
// configured for the sale.
func GetWhitelistWindow(ctx kalpsdk.TransactionContextInterface, saleID uint64) (*WhitelistWindow, error) {
	windowKey := fmt.Sprintf("whitelistwindow_%d", saleID)
	windowAsBytes, err := ctx.GetState(windowKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get whitelist window with Key %s", windowKey), err)
	}
	if windowAsBytes == nil {
		return nil, nil
	}

	var window WhitelistWindow
	err = json.Unmarshal(windowAsBytes, &window)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal whitelist window", err)
	}

	return &window, nil
}

func SetWhitelistWindowState(ctx kalpsdk.TransactionContextInterface, saleID uint64, window *WhitelistWindow) error {
	windowKey := fmt.Sprintf("whitelistwindow_%d", saleID)
	windowAsBytes, err := json.Marshal(window)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal whitelist window", err)
	}

	err = ctx.PutStateWithoutKYC(windowKey, windowAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set whitelist window", err)
	}

	return nil
}

// GetSnapshot returns nil without error when the account has not
// registered for the sale.
func GetSnapshot(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) (*EligibilitySnapshot, error) {
	snapshotKey := fmt.Sprintf("snapshot_%d_%s", saleID, normalizeAddress(account))
	snapshotAsBytes, err := ctx.GetState(snapshotKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get snapshot with Key %s", snapshotKey), err)
	}
	if snapshotAsBytes == nil {
		return nil, nil
	}

	var snapshot EligibilitySnapshot
	err = json.Unmarshal(snapshotAsBytes, &snapshot)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal snapshot", err)
	}

	return &snapshot, nil
}

func SetSnapshot(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string, snapshot *EligibilitySnapshot) error {
	snapshotKey := fmt.Sprintf("snapshot_%d_%s", saleID, normalizeAddress(account))
	snapshotAsBytes, err := json.Marshal(snapshot)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal snapshot", err)
	}

	err = ctx.PutStateWithoutKYC(snapshotKey, snapshotAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set snapshot", err)
	}

	return nil
}

func GetWhitelistPoints(ctx kalpsdk.TransactionContextInterface, saleID uint64) (*big.Int, error) {
	pointsKey := fmt.Sprintf("whitelistpoints_%d", saleID)
	pointsAsBytes, err := ctx.GetState(pointsKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get whitelist points with Key %s", pointsKey), err)
	}

	points := big.NewInt(0)
	if pointsAsBytes != nil {
		_, success := points.SetString(string(pointsAsBytes), 10)
		if !success {
			return nil, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to parse whitelist points for sale %d", saleID), nil)
		}
	}

	return points, nil
}

func SetWhitelistPoints(ctx kalpsdk.TransactionContextInterface, saleID uint64, points *big.Int) error {
	pointsKey := fmt.Sprintf("whitelistpoints_%d", saleID)
	pointsAsBytes, err := points.MarshalText()
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal whitelist points", err)
	}

	err = ctx.PutStateWithoutKYC(pointsKey, pointsAsBytes)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set whitelist points for sale %d", saleID), err)
	}

	return nil
}

func IsTokenAllowed(ctx kalpsdk.TransactionContextInterface, token string) (bool, error) {
	allowedKey := fmt.Sprintf("allowedtoken_%s", normalizeAddress(token))
	allowedAsBytes, err := ctx.GetState(allowedKey)
	if err != nil {
		return false, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get allowed token with Key %s", allowedKey), err)
	}

	return string(allowedAsBytes) == "true", nil
}

func SetAllowedTokenState(ctx kalpsdk.TransactionContextInterface, token string, allowed bool) error {
	allowedKey := fmt.Sprintf("allowedtoken_%s", normalizeAddress(token))
	err := ctx.PutStateWithoutKYC(allowedKey, []byte(strconv.FormatBool(allowed)))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set allowed token with Key %s", allowedKey), err)
	}

	return nil
}

func isPurchaseSigUsed(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) (bool, error) {
	sigKey := fmt.Sprintf("purchasesig_%d_%s", saleID, normalizeAddress(account))
	sigAsBytes, err := ctx.GetState(sigKey)
	if err != nil {
		return false, NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get purchase signature marker with Key %s", sigKey), err)
	}

	return sigAsBytes != nil, nil
}

func markPurchaseSigUsed(ctx kalpsdk.TransactionContextInterface, saleID uint64, account string) error {
	sigKey := fmt.Sprintf("purchasesig_%d_%s", saleID, normalizeAddress(account))
	err := ctx.PutStateWithoutKYC(sigKey, []byte("used"))
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set purchase signature marker with Key %s", sigKey), err)
	}

	return nil
}

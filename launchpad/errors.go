package launchpad

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInitialized     = errors.New("AlreadyInitialized")
	ErrNotInitialized         = errors.New("NotInitialized")
	ErrNotOperator            = errors.New("NotOperator")
	ErrInvalidWindow          = errors.New("InvalidWindow")
	ErrTokenNotAllowed        = errors.New("TokenNotAllowed")
	ErrSaleNotFound           = errors.New("SaleNotFound")
	ErrNotInSaleWindow        = errors.New("NotInSaleWindow")
	ErrInvalidSignature       = errors.New("InvalidSignature")
	ErrSignatureAlreadyUsed   = errors.New("SignatureAlreadyUsed")
	ErrAllocationExceeded     = errors.New("AllocationExceeded")
	ErrBelowMinimumPurchase   = errors.New("BelowMinimumPurchase")
	ErrPastSaleWindowRequired = errors.New("PastSaleWindowRequired")
	ErrScheduleOverflow       = errors.New("ScheduleOverflow")
	ErrNothingToClaim         = errors.New("NothingToClaim")
	ErrAlreadyClaimed         = errors.New("AlreadyClaimed")
	ErrOutsideWhitelistWindow = errors.New("OutsideWhitelistWindow")
	ErrNotEligible            = errors.New("NotEligible")
	ErrAlreadyRegistered      = errors.New("AlreadyRegistered")
	ErrWindowAlreadyOpen      = errors.New("WindowAlreadyOpen")
	ErrInsufficientBalance    = errors.New("InsufficientBalance")
	ErrInvalidUserAddress     = errors.New("InvalidUserAddress")
	ErrInvalidTokenAddress    = errors.New("InvalidTokenAddress")
	ErrInvalidStrategy        = errors.New("InvalidStrategy")
)

func InvalidAmountError(entity, value string) error {
	return fmt.Errorf("InvalidAmount for %s with value %s", entity, value)
}

type CustomError struct {
	Code    int
	Message string
	Err     error
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func NewCustomError(code int, message string, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

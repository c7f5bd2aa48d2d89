package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateOrder     = errors.New("chapter order already used in this novel")
	ErrChapterPurchased   = errors.New("chapter has been purchased")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyUnlocked     = errors.New("chapter already unlocked")
	ErrInvalidVoucher      = errors.New("invalid voucher link")
	ErrRedeemFailed        = errors.New("voucher redemption failed")
	ErrInvalidUpload       = errors.New("invalid upload")
	ErrNotPending          = errors.New("top-up request is not pending")
)

func invalid(msg string) error {
	return &inputError{msg: msg}
}

type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }

package errors

import "fmt"

type ErrorType string

const (
	InvalidRequest         ErrorType = "INVALID_REQUEST"
	NotFound               ErrorType = "NOT_FOUND"
	InsufficientFund       ErrorType = "INSUFFICIENT_FUND"
	InvalidSignature       ErrorType = "INVALID_SIGNATURE"
	InvalidTransferMessage ErrorType = "INVALID_TRANSFER_MESSAGE"
	Unauthorized           ErrorType = "UNAUTHORIZED"
	Conflict               ErrorType = "CONFLICT"
	PriceUnavailable       ErrorType = "PRICE_UNAVAILABLE"
	Internal               ErrorType = "INTERNAL_ERROR"
)

type Error struct {
	Type    ErrorType
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s -> %v", e.Type, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Type, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// 快捷构造函数
func NewInvalidInput(op, msg string) *Error {
	return &Error{
		Type:    InvalidRequest,
		Op:      op,
		Message: msg,
	}
}

func NewNotFound(op, resource string) *Error {
	return &Error{
		Type:    NotFound,
		Op:      op,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func NewInsufficientBalance(op string) *Error {
	return &Error{
		Type:    InsufficientFund,
		Op:      op,
		Message: "insufficient balance",
	}
}

func NewInvalidSignature(op, msg string) *Error {
	return &Error{
		Type:    InvalidSignature,
		Op:      op,
		Message: msg,
	}
}

func NewInvalidTransferMessage(op string) *Error {
	return &Error{
		Type:    InvalidTransferMessage,
		Op:      op,
		Message: "invalid transfer message format",
	}
}

func NewUnauthorized(op, msg string) *Error {
	return &Error{
		Type:    Unauthorized,
		Op:      op,
		Message: msg,
	}
}

func NewConflict(op, msg string) *Error {
	return &Error{
		Type:    Conflict,
		Op:      op,
		Message: msg,
	}
}

func NewPriceUnavailable(op string, err error) *Error {
	return &Error{
		Type:    PriceUnavailable,
		Op:      op,
		Message: "price source unavailable",
		Err:     err,
	}
}

func NewInternal(op string, err error) *Error {
	return &Error{
		Type:    Internal,
		Op:      op,
		Message: "internal server error",
		Err:     err,
	}
}

// 辅助函数
func WrapInternal(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewInternal(op, err)
}

func TypeOf(err error) ErrorType {
	if e, ok := err.(*Error); ok {
		return e.Type
	}
	return Internal
}

func IsNotFound(err error) bool {
	return TypeOf(err) == NotFound
}

func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

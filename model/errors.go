package model

import (
	"errors"
	"fmt"

	"phoenixstudio.dev/licensing/license"
)

type ErrorCode string

const (
	ErrConfig   ErrorCode = "CONFIG"
	ErrIO       ErrorCode = "IO"
	ErrFormat   ErrorCode = "FORMAT"
	ErrCrypto   ErrorCode = "CRYPTO"
	ErrInternal ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code, the violated
// rule when known, and a human message.
type CodedError struct {
	Code    ErrorCode `json:"code" yaml:"code"`
	Rule    string    `json:"rule,omitempty" yaml:"rule,omitempty"`
	Message string    `json:"message" yaml:"message"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Rule != "" {
		return fmt.Sprintf("%s %s: %s", e.Code, e.Rule, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// FromError maps a verification error onto a CodedError. It returns nil for
// a nil error.
func FromError(err error) *CodedError {
	if err == nil {
		return nil
	}
	var le *license.Error
	if !errors.As(err, &le) {
		return NewError(ErrInternal, err.Error())
	}
	code := ErrInternal
	switch le.Kind {
	case license.KindConfig:
		code = ErrConfig
	case license.KindIO:
		code = ErrIO
	case license.KindFormat:
		code = ErrFormat
	case license.KindCrypto:
		code = ErrCrypto
	}
	return &CodedError{Code: code, Rule: le.RuleID, Message: le.Error()}
}

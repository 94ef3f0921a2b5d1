package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"

	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeAccountDisabled    Code = "ACCOUNT_DISABLED"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeTokenRevoked       Code = "TOKEN_REVOKED"
	CodeEmailExists        Code = "EMAIL_EXISTS"
	CodePhoneExists        Code = "PHONE_EXISTS"
	CodePhoneRequired      Code = "PHONE_REQUIRED"
	CodePhoneInvalid       Code = "PHONE_INVALID"
	CodeOTPExpired         Code = "OTP_EXPIRED"
	CodeOTPInvalid         Code = "OTP_INVALID"
	CodeOTPTooManyAttempts Code = "OTP_TOO_MANY_ATTEMPTS"

	CodeProductNotFound  Code = "PRODUCT_NOT_FOUND"
	CodeCategoryNotFound Code = "CATEGORY_NOT_FOUND"
	CodeOrderNotFound    Code = "ORDER_NOT_FOUND"
	CodeSlugExists       Code = "SLUG_EXISTS"
	CodeSKUExists        Code = "SKU_EXISTS"
	CodeNoItems          Code = "NO_ITEMS"
	CodeCancelFailed     Code = "CANCEL_FAILED"
	CodeOutOfStock       Code = "OUT_OF_STOCK"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},

	CodeInvalidCredentials: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid credentials",
	},
	CodeAccountDisabled: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "account disabled",
	},
	CodeTokenExpired: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "token expired",
	},
	CodeTokenRevoked: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "token revoked",
	},
	CodeEmailExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "email already registered",
	},
	CodePhoneExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "phone already registered",
	},
	CodePhoneRequired: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "phone is required",
	},
	CodePhoneInvalid: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "phone number is invalid",
	},
	CodeOTPExpired: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "code expired, request a new one",
	},
	CodeOTPInvalid: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "invalid confirmation code",
	},
	CodeOTPTooManyAttempts: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "too many attempts, request a new code",
	},

	CodeProductNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "product not found",
	},
	CodeCategoryNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "category not found",
	},
	CodeOrderNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "order not found",
	},
	CodeSlugExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "slug already in use",
	},
	CodeSKUExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "sku already in use",
	},
	CodeNoItems: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "order has no purchasable items",
		DetailsAllowed: true,
	},
	CodeCancelFailed: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "order can no longer be cancelled",
	},
	CodeOutOfStock: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "insufficient stock",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

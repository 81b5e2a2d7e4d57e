package errors

import (
	stderrors "errors"
	"fmt"
)

// Reasons a caller is treated as not logged in. Each reason keeps its own
// negative code so "please log in" can be told apart from "you were kicked".
const (
	CodeNotToken     = -1
	CodeInvalidToken = -2
	CodeTokenTimeout = -3
	CodeBeReplaced   = -4
	CodeKickOut      = -5
	CodeTokenFreeze  = -6
	CodeNoPrefix     = -7
)

// Codes for the assertive authorization failures.
const (
	CodeNotRole       = 11041
	CodeNotPermission = 11051
	CodeDisable       = 11061
	CodeNotSafe       = 11071
)

// Authentication-specific error types
const (
	ErrorTypeNotLoggedIn     ErrorType = "not_logged_in"
	ErrorTypeNotInRole       ErrorType = "not_in_role"
	ErrorTypeNotInPermission ErrorType = "not_in_permission"
	ErrorTypeDisabled        ErrorType = "service_disabled"
	ErrorTypeNotSafe         ErrorType = "not_passed_safe_auth"
)

var notLoggedInMessages = map[int]string{
	CodeNotToken:     "token not provided",
	CodeInvalidToken: "invalid token",
	CodeTokenTimeout: "token timed out",
	CodeBeReplaced:   "token was replaced by a newer login",
	CodeKickOut:      "token was kicked out",
	CodeTokenFreeze:  "token is frozen due to inactivity",
	CodeNoPrefix:     "token was submitted without the required prefix",
}

// NotLoggedInError is raised whenever a presented credential does not map to
// a live login. Reason is one of the Code* constants above.
type NotLoggedInError struct {
	*AppError
	LoginType string
	Reason    int
}

func (e *NotLoggedInError) Error() string {
	return fmt.Sprintf("not logged in (%s): %s", e.LoginType, e.Message)
}

func (e *NotLoggedInError) Unwrap() error {
	return e.AppError
}

// NewNotLoggedInError creates a NotLoggedInError for the given reason code.
func NewNotLoggedInError(loginType string, reason int) *NotLoggedInError {
	msg, ok := notLoggedInMessages[reason]
	if !ok {
		msg = "not logged in"
	}
	return &NotLoggedInError{
		AppError: &AppError{
			Type:    ErrorTypeNotLoggedIn,
			Message: msg,
			Code:    reason,
		},
		LoginType: loginType,
		Reason:    reason,
	}
}

// IsNotLoggedIn reports whether err (or anything it wraps) is a NotLoggedInError.
func IsNotLoggedIn(err error) bool {
	var e *NotLoggedInError
	return stderrors.As(err, &e)
}

// NotLoggedInReason extracts the reason code, or 0 if err is not a NotLoggedInError.
func NotLoggedInReason(err error) int {
	var e *NotLoggedInError
	if stderrors.As(err, &e) {
		return e.Reason
	}
	return 0
}

// NotInRoleError is raised by the assertive role checks.
type NotInRoleError struct {
	*AppError
	LoginType string
	Role      string
}

func (e *NotInRoleError) Error() string {
	return fmt.Sprintf("role check failed (%s): missing role %q", e.LoginType, e.Role)
}

func (e *NotInRoleError) Unwrap() error { return e.AppError }

func NewNotInRoleError(loginType, role string) *NotInRoleError {
	return &NotInRoleError{
		AppError: &AppError{
			Type:    ErrorTypeNotInRole,
			Message: fmt.Sprintf("missing role %q", role),
			Code:    CodeNotRole,
		},
		LoginType: loginType,
		Role:      role,
	}
}

// NotInPermissionError is raised by the assertive permission checks.
type NotInPermissionError struct {
	*AppError
	LoginType  string
	Permission string
}

func (e *NotInPermissionError) Error() string {
	return fmt.Sprintf("permission check failed (%s): missing permission %q", e.LoginType, e.Permission)
}

func (e *NotInPermissionError) Unwrap() error { return e.AppError }

func NewNotInPermissionError(loginType, permission string) *NotInPermissionError {
	return &NotInPermissionError{
		AppError: &AppError{
			Type:    ErrorTypeNotInPermission,
			Message: fmt.Sprintf("missing permission %q", permission),
			Code:    CodeNotPermission,
		},
		LoginType:  loginType,
		Permission: permission,
	}
}

// ServiceDisabledError is raised when an account is banned from a service at
// or above the level the caller asked about.
type ServiceDisabledError struct {
	*AppError
	LoginType        string
	LoginID          string
	Service          string
	Level            int
	LimitLevel       int
	RemainingSeconds int64
}

func (e *ServiceDisabledError) Error() string {
	return fmt.Sprintf("service %q disabled for account %s at level %d (checked against %d, %ds remaining)",
		e.Service, e.LoginID, e.Level, e.LimitLevel, e.RemainingSeconds)
}

func (e *ServiceDisabledError) Unwrap() error { return e.AppError }

func NewServiceDisabledError(loginType, loginID, service string, level, limitLevel int, remaining int64) *ServiceDisabledError {
	return &ServiceDisabledError{
		AppError: &AppError{
			Type:    ErrorTypeDisabled,
			Message: fmt.Sprintf("service %q is disabled", service),
			Code:    CodeDisable,
		},
		LoginType:        loginType,
		LoginID:          loginID,
		Service:          service,
		Level:            level,
		LimitLevel:       limitLevel,
		RemainingSeconds: remaining,
	}
}

// NotPassedSafeAuthError is raised when a step-up check finds no live marker.
type NotPassedSafeAuthError struct {
	*AppError
	LoginType string
	Service   string
}

func (e *NotPassedSafeAuthError) Error() string {
	return fmt.Sprintf("safe auth not passed (%s): service %q", e.LoginType, e.Service)
}

func (e *NotPassedSafeAuthError) Unwrap() error { return e.AppError }

func NewNotPassedSafeAuthError(loginType, service string) *NotPassedSafeAuthError {
	return &NotPassedSafeAuthError{
		AppError: &AppError{
			Type:    ErrorTypeNotSafe,
			Message: fmt.Sprintf("safe auth required for service %q", service),
			Code:    CodeNotSafe,
		},
		LoginType: loginType,
		Service:   service,
	}
}

// IsNotInRole checks if the error is a role check failure
func IsNotInRole(err error) bool {
	var e *NotInRoleError
	return stderrors.As(err, &e)
}

// IsNotInPermission checks if the error is a permission check failure
func IsNotInPermission(err error) bool {
	var e *NotInPermissionError
	return stderrors.As(err, &e)
}

// IsServiceDisabled checks if the error is a service ban
func IsServiceDisabled(err error) bool {
	var e *ServiceDisabledError
	return stderrors.As(err, &e)
}

// IsNotPassedSafeAuth checks if the error is a missing step-up marker
func IsNotPassedSafeAuth(err error) bool {
	var e *NotPassedSafeAuthError
	return stderrors.As(err, &e)
}

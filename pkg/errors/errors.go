package errors

import "fmt"

// Type classifies where in the pipeline an error occurred and whether it is
// fatal. Auth, lookup and navigation errors abort a run before or at its
// start; source errors encountered mid-collection stop the loop but leave
// the accumulated records valid.
type Type string

const (
	TypeAuth       Type = "auth"
	TypeLookup     Type = "lookup"
	TypeSource     Type = "source"
	TypeNavigation Type = "navigation"
)

// Reason is the sub-classification surfaced to the caller and the log. It is
// reported, never swallowed, but does not change the fatality of the Type.
type Reason string

const (
	ReasonNotFound         Reason = "not_found"
	ReasonForbidden        Reason = "forbidden"
	ReasonUnauthorized     Reason = "unauthorized"
	ReasonRateLimited      Reason = "rate_limited"
	ReasonTierInsufficient Reason = "tier_insufficient"
	ReasonBadRequest       Reason = "bad_request"
	ReasonLoginFailed      Reason = "login_failed"
	ReasonGated            Reason = "gated"
	ReasonTransient        Reason = "transient"
	ReasonUnknown          Reason = "unknown"
)

// Error is a classified pipeline error. Code carries the HTTP status when
// the error came from an API response, zero otherwise.
type Error struct {
	Type    Type
	Reason  Reason
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (%s, status %d): %s", e.Type, e.Reason, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Type, e.Reason, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a classified error.
func New(t Type, reason Reason, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    t,
		Reason:  reason,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap constructs a classified error around an underlying cause.
func Wrap(t Type, reason Reason, err error, msg string) *Error {
	return &Error{
		Type:    t,
		Reason:  reason,
		Message: msg,
		Err:     err,
	}
}

// As unwraps a classified error from err, the second result reporting
// whether one was found.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsFatal reports whether an error must abort the run. Source errors are
// non-fatal: the pipeline stops and returns partial results instead.
func IsFatal(err error) bool {
	e, ok := As(err)
	if !ok {
		return true
	}
	return e.Type != TypeSource
}

// ReasonFromStatus maps an HTTP status code to the standard sub-reason.
func ReasonFromStatus(code int) Reason {
	switch code {
	case 400:
		return ReasonBadRequest
	case 401:
		return ReasonUnauthorized
	case 403:
		return ReasonForbidden
	case 404:
		return ReasonNotFound
	case 429:
		return ReasonRateLimited
	default:
		if code >= 500 {
			return ReasonTransient
		}
		return ReasonUnknown
	}
}

package services

import "fmt"

// AuthError means credentials were missing, rejected, or expired. The
// scheduler keeps the config on this error but every subsequent run also
// fails until credentials are refreshed.
type AuthError struct {
	DriveType string
	Reason    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.DriveType, e.Reason)
}

// NotFoundError means a config/account/share/path does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError means caller-supplied input was malformed: a bad cron
// expression, unparseable rule JSON, or an empty/root-only share path.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Reason)
}

// ProviderTransientError is a network/timeout/5xx/rate-limit response.
// C1 retries these internally with backoff; only returned after the retry
// budget is exhausted.
type ProviderTransientError struct {
	DriveType string
	Op        string
	Cause     error
}

func (e *ProviderTransientError) Error() string {
	return fmt.Sprintf("transient provider error (%s/%s): %v", e.DriveType, e.Op, e.Cause)
}

func (e *ProviderTransientError) Unwrap() error { return e.Cause }

// ProviderBusinessError is a provider-reported business-rule rejection:
// quota exceeded, duplicate name, share revoked, size/batch limits. Never
// retried; the caller records it as a failed unit and continues.
type ProviderBusinessError struct {
	DriveType string
	Op        string
	Code      string
	Message   string
}

func (e *ProviderBusinessError) Error() string {
	return fmt.Sprintf("provider business error (%s/%s) [%s]: %s", e.DriveType, e.Op, e.Code, e.Message)
}

// InternalError covers invariant violations and bugs; the whole task fails.
type InternalError struct {
	Reason string
	Cause  error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Reason)
}

func (e *InternalError) Unwrap() error { return e.Cause }

// Package pclient holds retry/backoff and credential-parsing helpers
// shared by the per-provider ProviderClient implementations, kept out of
// the top-level providers package to avoid an import cycle with the
// registry that imports each provider subpackage.
package pclient

import (
	"context"
	"math"
	"math/rand"
	"time"

	"drivesync/domain/services"
)

// MaxRetries bounds WithRetry's exponential backoff loop for transient
// errors (network, 5xx, rate limit). The baidu, quark and alist clients do
// not call WithRetry: each runs its own retry loop with a sleep that grows
// by 300ms per attempt.
const MaxRetries = 3

// isAuthRejected classifies an HTTP status code as an authentication
// rejection (401 or 403). Only the status code is considered; error codes
// inside a response body are not.
func isAuthRejected(statusCode int) bool {
	return statusCode == 401 || statusCode == 403
}

// IsAuthRejected is the exported form of isAuthRejected. The provider
// packages do not call it; each checks for 401/403 inline.
func IsAuthRejected(statusCode int) bool {
	return isAuthRejected(statusCode)
}

// IsTransientStatus reports whether statusCode should be retried:
// network-adjacent 5xx and the common rate-limit status.
func IsTransientStatus(statusCode int) bool {
	return statusCode >= 500 || statusCode == 429
}

// WithRetry runs op up to MaxRetries+1 times, backing off exponentially
// with jitter between attempts. op reports whether its error is
// transient; a non-transient error aborts immediately without wrapping.
func WithRetry(ctx context.Context, driveType, opName string, op func() (transient bool, err error)) error {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		transient, err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if !transient {
			return err
		}
		if attempt == MaxRetries {
			break
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * 200 * time.Millisecond
		jitter := time.Duration(rand.Intn(100)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}
	return &services.ProviderTransientError{DriveType: driveType, Op: opName, Cause: lastErr}
}

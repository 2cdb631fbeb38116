package services

import (
	"context"

	"drivesync/domain/models"
)

// DriveManager is the process-wide registry keyed by (drive_type,
// hash(credentials)) -> ProviderClient, with idle eviction. Exactly one
// client exists per (drive_type, credentials) tuple at any instant; the
// manager never rewrites credentials and never shares a client across
// distinct credentials even when a provider would tolerate it.
type DriveManager interface {
	// GetClient returns the cached client for creds, constructing and
	// registering one if none exists yet.
	GetClient(ctx context.Context, creds Credentials) (ProviderClient, error)

	// Call is the single generic dispatch entry point: look up or create
	// the client for xToken/driveType, then invoke methodName with params.
	// It exists to satisfy the administrative dispatch surface (§6) from a
	// single call site rather than one Go method per HTTP operation.
	Call(ctx context.Context, xToken string, driveType models.DriveType, methodName string, params any) (any, error)

	// Sweep evicts clients idle beyond maxIdle. It runs at most once per
	// cleanupInterval and is triggered by call arrival, not a background
	// goroutine, per the model repository's pattern of piggybacking
	// maintenance on request traffic rather than a standalone ticker.
	Sweep()
}

// Package handlers exposes the thin administrative dispatch surface that
// sits in front of C1-C7: every route here parses its request into a typed
// params struct, delegates to one service method, and renders whatever that
// method returns through pkg/utils' envelope. Routing, auth, and pagination
// for any outer HTTP API are out of scope; this is the internal
// control-plane surface a scheduler-adjacent admin tool or another backend
// service calls directly.
package handlers

import "drivesync/domain/services"

// Services bundles the service interfaces the dispatch handlers depend on,
// mirroring the teacher's handlers.Services grouping.
type Services struct {
	DriveManager     services.DriveManager
	FileCacheService services.FileCacheService
	SyncExecutor     services.SyncExecutor
	SchedulerService services.SchedulerService
}

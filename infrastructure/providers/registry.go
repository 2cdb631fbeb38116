package providers

import (
	"fmt"
	"sync"

	"drivesync/domain/models"
	"drivesync/domain/services"
	"drivesync/infrastructure/providers/alist"
	"drivesync/infrastructure/providers/baidu"
	"drivesync/infrastructure/providers/quark"
	"drivesync/pkg/config"
)

// Registry resolves a models.DriveType to the ProviderFactory registered
// for it. One registry is built at startup from the process config and
// handed to the drive manager (C2); it is read-only after construction.
type Registry struct {
	mu        sync.RWMutex
	factories map[models.DriveType]services.ProviderFactory
}

// NewRegistry wires one factory per supported drive type, closing over
// the provider defaults (base URLs, request timeout) from config.
func NewRegistry(cfg config.ProvidersConfig) *Registry {
	r := &Registry{factories: make(map[models.DriveType]services.ProviderFactory)}

	r.factories[models.DriveTypeBaidu] = func(creds services.Credentials) (services.ProviderClient, error) {
		return baidu.NewClient(creds.RawToken, cfg.BaiduBaseURL, cfg.RequestTimeoutS)
	}
	r.factories[models.DriveTypeQuark] = func(creds services.Credentials) (services.ProviderClient, error) {
		return quark.NewClient(creds.RawToken, cfg.QuarkBaseURL, cfg.RequestTimeoutS)
	}
	r.factories[models.DriveTypeAlist] = func(creds services.Credentials) (services.ProviderClient, error) {
		return alist.NewClient(creds.RawToken, cfg.AlistBaseURL, cfg.RequestTimeoutS)
	}

	return r
}

// New constructs a client for creds via the registered factory.
func (r *Registry) New(creds services.Credentials) (services.ProviderClient, error) {
	r.mu.RLock()
	factory, ok := r.factories[creds.DriveType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no provider factory registered for drive type %q", creds.DriveType)
	}
	return factory(creds)
}

// Package adapter connects user-facing transports to the session package.
// Adapters translate platform input into commands and render instructions
// back into platform UI; no core logic lives here.
package adapter

import (
	"context"
	"fmt"
	"sync"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/session"
)

// AdapterInstance represents a running transport adapter.
type AdapterInstance interface {
	// AdapterStart starts the adapter instance.
	AdapterStart() error

	// AdapterStop terminates the adapter instance.
	AdapterStop() error

	// GetType returns the type of the adapter.
	GetType() string
}

// AdapterFactory creates new instances of adapters.
type AdapterFactory func(*AdapterManager) (AdapterInstance, error)

// AdapterManager manages all adapter instances.
type AdapterManager struct {
	factories      map[string]AdapterFactory
	instances      sync.Map // map[string]AdapterInstance
	sessionManager *session.SessionManager
	logger         *log.Logger
}

// NewAdapterManager creates a new AdapterManager.
func NewAdapterManager(sm *session.SessionManager, logger *log.Logger) *AdapterManager {
	return &AdapterManager{
		factories:      make(map[string]AdapterFactory),
		sessionManager: sm,
		logger:         logger,
	}
}

// Register makes an adapter type available for AdapterAdd.
func (am *AdapterManager) Register(adapterType string, factory AdapterFactory) {
	am.factories[adapterType] = factory
}

// AdapterAdd creates and starts a new adapter instance of the given type.
func (am *AdapterManager) AdapterAdd(adapterType string) (AdapterInstance, error) {
	factory, ok := am.factories[adapterType]
	if !ok {
		return nil, fmt.Errorf("unknown adapter type: %s", adapterType)
	}

	instance, err := factory(am)
	if err != nil {
		return nil, err
	}

	if err := instance.AdapterStart(); err != nil {
		return nil, fmt.Errorf("failed to start %s adapter: %w", adapterType, err)
	}

	am.instances.Store(adapterType, instance)
	am.logger.Info(context.Background(), "Adapter started", log.Fields{"type": adapterType})
	return instance, nil
}

// SessionManager exposes the session manager to adapter implementations.
func (am *AdapterManager) SessionManager() *session.SessionManager {
	return am.sessionManager
}

// Shutdown stops all adapter instances.
func (am *AdapterManager) Shutdown() {
	am.instances.Range(func(key, value interface{}) bool {
		instance := value.(AdapterInstance)
		if err := instance.AdapterStop(); err != nil {
			am.logger.Error(context.Background(), "Failed to stop adapter", log.Fields{"type": instance.GetType(), "error": err})
		}
		am.instances.Delete(key)
		return true
	})
}

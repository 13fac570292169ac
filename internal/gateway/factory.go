package gateway

import (
	"fmt"
	"sort"
	"sync"

	"excellerator/internal/config"
	"excellerator/internal/port"
)

// ProviderFactory creates a ModelGateway from a provider config.
type ProviderFactory func(cfg *config.ModelProviderConfig) (port.ModelGateway, error)

var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name. Provider packages
// call it from init.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// Providers lists the registered provider names.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a ModelGateway from a provider config using the registered factory.
func New(cfg *config.ModelProviderConfig) (port.ModelGateway, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Build creates the gateway described by cfg: the primary provider alone, or
// a FallbackGateway when a secondary provider is configured.
func Build(cfg *config.ModelConfig) (port.ModelGateway, error) {
	primary, err := New(cfg.PrimaryConfig())
	if err != nil {
		return nil, fmt.Errorf("primary model provider: %w", err)
	}
	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := New(secondaryCfg)
	if err != nil {
		return nil, fmt.Errorf("secondary model provider: %w", err)
	}
	return NewFallbackGateway(
		[]port.ModelGateway{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}

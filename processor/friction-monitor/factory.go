package frictionmonitor

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface required for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the friction-monitor component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "friction-monitor",
		Factory:     NewComponent,
		Schema:      frictionMonitorSchema,
		Type:        "processor",
		Protocol:    "nats",
		Domain:      "reqgraph",
		Description: "Background friction scoring and graph health alerts",
		Version:     "0.1.0",
	})
}

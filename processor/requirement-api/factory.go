package requirementapi

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface required for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the requirement-api component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "requirement-api",
		Factory:     NewComponent,
		Schema:      requirementAPISchema,
		Type:        "processor",
		Protocol:    "nats",
		Domain:      "reqgraph",
		Description: "Command surface for the versioned requirement dependency graph",
		Version:     "0.1.0",
	})
}

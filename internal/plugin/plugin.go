// Package plugin defines how optional features hook into a bang build.
//
// A plugin is configured once per project. Configure receives the Host and
// the plugin's settings from bang.yaml; a plugin registers everything it
// does there: event handlers on the bus, content variants, output contexts,
// template functions. Nothing is registered through import side effects.
package plugin

import (
	"context"
	"fmt"
)

// Plugin is an optional feature of the build.
type Plugin interface {
	// Metadata returns the plugin's identity and dependencies.
	Metadata() Metadata

	// Configure registers the plugin's handlers with host. It runs during
	// the configure.plugins phase, after the theme is known and before any
	// content is scanned.
	Configure(ctx context.Context, host Host, settings Settings) error
}

// Metadata describes a plugin's identity.
type Metadata struct {
	// Name is the unique plugin identifier used in bang.yaml (e.g. "feed").
	Name string

	// Version is the plugin's semantic version.
	Version string

	// Type identifies what the plugin contributes.
	Type Type

	// Description is a one-line human-readable summary.
	Description string

	// Dependencies lists plugins that must be configured first.
	Dependencies []string
}

// String returns a human-readable representation of the metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the metadata is complete.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	for _, dep := range m.Dependencies {
		if dep == m.Name {
			return fmt.Errorf("plugin %s depends on itself", m.Name)
		}
	}
	return nil
}

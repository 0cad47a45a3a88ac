package plugin

import (
	"context"
	"strings"
	"testing"
)

// mockPlugin is a test plugin for registry tests.
type mockPlugin struct {
	metadata   Metadata
	configured bool
}

func (m *mockPlugin) Metadata() Metadata {
	return m.metadata
}

func (m *mockPlugin) Configure(ctx context.Context, host Host, settings Settings) error {
	m.configured = true
	return nil
}

func newMockPlugin(name string, pluginType Type, deps ...string) Plugin {
	return &mockPlugin{
		metadata: Metadata{
			Name:         name,
			Version:      "v1.0.0",
			Type:         pluginType,
			Dependencies: deps,
		},
	}
}

func resolvedNames(plugins []Plugin) string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Metadata().Name
	}
	return strings.Join(names, ",")
}

// TestRegistryRegister tests plugin registration.
func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry()

	plugin := newMockPlugin("test-plugin", TypeOutput)

	if err := registry.Register(plugin); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if !registry.Has("test-plugin") {
		t.Error("Plugin should be registered")
	}

	if err := registry.Register(plugin); err == nil {
		t.Error("Should not allow duplicate registration")
	}
}

// TestRegistryRegisterNil tests registering nil plugin.
func TestRegistryRegisterNil(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(nil); err == nil {
		t.Error("Should not allow registering nil plugin")
	}
}

// TestRegistryRegisterInvalidMetadata tests registering plugin with invalid metadata.
func TestRegistryRegisterInvalidMetadata(t *testing.T) {
	registry := NewRegistry()

	plugin := &mockPlugin{
		metadata: Metadata{
			Version: "v1.0.0",
			Type:    TypeOutput,
		},
	}

	if err := registry.Register(plugin); err == nil {
		t.Error("Should not allow plugin with invalid metadata")
	}
}

// TestRegistryGet tests retrieving plugins.
func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(newMockPlugin("feed", TypeOutput))

	plugin, err := registry.Get("feed")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if plugin.Metadata().Name != "feed" {
		t.Errorf("Get() returned %s", plugin.Metadata().Name)
	}

	if _, err := registry.Get("missing"); err == nil {
		t.Error("Get() should fail for unknown plugin")
	}
}

// TestRegistryList tests listing in registration order.
func TestRegistryList(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(newMockPlugin("sitemap", TypeOutput))
	_ = registry.Register(newMockPlugin("blog", TypeVariant))
	_ = registry.Register(newMockPlugin("feed", TypeOutput))

	if got := resolvedNames(registry.List()); got != "sitemap,blog,feed" {
		t.Errorf("List() = %s", got)
	}
	if got := strings.Join(registry.Names(), ","); got != "sitemap,blog,feed" {
		t.Errorf("Names() = %s", got)
	}
	if got := resolvedNames(registry.ListByType(TypeOutput)); got != "sitemap,feed" {
		t.Errorf("ListByType() = %s", got)
	}
	if registry.Count() != 3 {
		t.Errorf("Count() = %d", registry.Count())
	}
}

// TestRegistryResolve tests dependency ordering.
func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(newMockPlugin("blog", TypeVariant))
	_ = registry.Register(newMockPlugin("feed", TypeOutput, "blog"))
	_ = registry.Register(newMockPlugin("amp", TypeOutput))
	_ = registry.Register(newMockPlugin("notify", TypePublisher, "feed"))

	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"configuration order", []string{"amp", "blog"}, "amp,blog"},
		{"dependency first", []string{"feed", "blog"}, "blog,feed"},
		{"transitive dependency added", []string{"notify"}, "blog,feed,notify"},
		{"duplicates collapse", []string{"amp", "amp"}, "amp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Resolve(tt.names)
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			if names := resolvedNames(got); names != tt.want {
				t.Errorf("Resolve() = %s, want %s", names, tt.want)
			}
		})
	}
}

// TestRegistryResolveErrors tests unknown plugins and cycles.
func TestRegistryResolveErrors(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(newMockPlugin("a", TypeOutput, "b"))
	_ = registry.Register(newMockPlugin("b", TypeOutput, "a"))
	_ = registry.Register(newMockPlugin("c", TypeOutput, "missing"))

	if _, err := registry.Resolve([]string{"unknown"}); err == nil {
		t.Error("Resolve() should fail for unknown plugin")
	}
	if _, err := registry.Resolve([]string{"a"}); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("Resolve() should report a cycle, got %v", err)
	}
	if _, err := registry.Resolve([]string{"c"}); err == nil || !strings.Contains(err.Error(), "requires missing") {
		t.Errorf("Resolve() should report the missing dependency, got %v", err)
	}
}

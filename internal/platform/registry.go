package platform

import (
	"fmt"
	"sort"

	"github.com/emkit/wdog/internal/wdt"
)

// Builder collects watchdog driver instances before creating a Registry.
// One driver is registered per physical device; the builder rejects
// duplicate names so a device cannot end up with two owners.
type Builder struct {
	drivers       map[string]wdt.Driver
	disableAtBoot bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		drivers: make(map[string]wdt.Driver),
	}
}

// Register adds a named watchdog driver.
func (b *Builder) Register(name string, drv wdt.Driver) error {
	if name == "" {
		return fmt.Errorf("platform: driver name is empty")
	}
	if drv == nil {
		return fmt.Errorf("platform: driver %q is nil", name)
	}
	if _, exists := b.drivers[name]; exists {
		return fmt.Errorf("platform: driver %q already registered", name)
	}
	b.drivers[name] = drv
	return nil
}

// DisableAtBoot arranges for every registered watchdog to be disabled when
// the registry is built. A watchdog left running by a bootloader would
// otherwise reset the system before the application installs its own
// timeout.
func (b *Builder) DisableAtBoot(enable bool) {
	b.disableAtBoot = enable
}

// Build finalizes the registry. With DisableAtBoot set, each driver's
// Disable is attempted best-effort; failures are ignored since boot must
// proceed either way.
func (b *Builder) Build() (*Registry, error) {
	if b == nil {
		return nil, fmt.Errorf("platform: builder is nil")
	}

	drivers := make(map[string]wdt.Driver, len(b.drivers))
	for name, drv := range b.drivers {
		if b.disableAtBoot {
			_ = drv.Disable()
		}
		drivers[name] = drv
	}

	return &Registry{drivers: drivers}, nil
}

// Registry owns the watchdog driver instances for a board. It is the only
// way other subsystems obtain a Driver; the registry constructs and hands
// out instances explicitly rather than exposing package-level singletons.
type Registry struct {
	drivers map[string]wdt.Driver
}

// Lookup returns the driver registered under name.
func (r *Registry) Lookup(name string) (wdt.Driver, error) {
	drv, ok := r.drivers[name]
	if !ok {
		return nil, fmt.Errorf("platform: %w: %q", wdt.ErrUnknownDevice, name)
	}
	return drv, nil
}

// Names lists the registered devices in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

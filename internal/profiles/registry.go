package profiles

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a profile instance.
type Factory func() Profile

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a profile factory under its name. Registering the same
// name twice panics; profiles are wired once at initialization.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("profiles: duplicate registration of %q", name))
	}
	registry[name] = f
}

// Get returns a fresh instance of the named profile.
func Get(name string) (Profile, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("profiles: unknown profile %q", name)
	}
	return f(), nil
}

// Names lists the registered profile names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(NameStandard1, func() Profile { return &standardProfile{name: NameStandard1, tier: 1} })
	Register(NameStandard2, func() Profile { return &standardProfile{name: NameStandard2, tier: 2} })
	Register(NameStandard3, func() Profile { return &standardProfile{name: NameStandard3, tier: 3} })
}

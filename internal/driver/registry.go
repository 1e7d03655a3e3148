package driver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// registry holds all registered drivers keyed by lower-cased name and alias.
var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Driver)
)

// Register adds a driver to the global registry under its name and aliases.
// This is typically called from a driver package's init() function:
//
//	func init() {
//	    driver.Register(&Driver{})
//	}
//
// Panics if the name or one of the aliases is already taken.
func Register(d Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()

	keys := append([]string{d.Name()}, d.Aliases()...)
	for _, k := range keys {
		k = strings.ToLower(k)
		if _, exists := drivers[k]; exists {
			panic(fmt.Sprintf("driver name %q already registered", k))
		}
	}
	for _, k := range keys {
		drivers[strings.ToLower(k)] = d
	}
}

// Get retrieves a driver by name or alias (case-insensitive).
// An unknown name is a configuration problem, so the error wraps ErrConfiguration.
func Get(nameOrAlias string) (Driver, error) {
	registryMu.RLock()
	d, exists := drivers[strings.ToLower(nameOrAlias)]
	registryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: unknown dialect %q (available: %v)", ErrConfiguration, nameOrAlias, Available())
	}
	return d, nil
}

// GetDialect returns the dialect of the driver registered under nameOrAlias.
func GetDialect(nameOrAlias string) (Dialect, error) {
	d, err := Get(nameOrAlias)
	if err != nil {
		return nil, err
	}
	return d.Dialect(), nil
}

// Canonicalize returns the primary driver name for a name or alias.
// For example, "sqlserver" and "mssql" both return "sqlsrv".
// Unknown names are returned unchanged.
func Canonicalize(nameOrAlias string) string {
	d, err := Get(nameOrAlias)
	if err != nil {
		return nameOrAlias
	}
	return d.Name()
}

// Available returns the sorted primary names of all registered drivers.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, d := range drivers {
		seen[d.Name()] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered returns true if a driver with the given name or alias exists.
func IsRegistered(nameOrAlias string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, exists := drivers[strings.ToLower(nameOrAlias)]
	return exists
}

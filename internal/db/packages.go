package db

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownPackage is returned when a configuration scans a package that was never registered.
var ErrUnknownPackage = errors.New("unknown model package")

var packages = struct {
	sync.RWMutex
	models map[string][]any
}{models: make(map[string][]any)}

// RegisterPackage adds models to a named package so configurations can pick
// them all up with AddPackage. Registering the same name again appends.
func RegisterPackage(name string, models ...any) {
	packages.Lock()
	defer packages.Unlock()
	packages.models[name] = append(packages.models[name], models...)
}

// PackageModels returns the models registered under name.
func PackageModels(name string) ([]any, error) {
	packages.RLock()
	defer packages.RUnlock()
	models, ok := packages.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPackage, name)
	}
	return append([]any(nil), models...), nil
}

// PackageNames lists the registered packages in sorted order.
func PackageNames() []string {
	packages.RLock()
	defer packages.RUnlock()
	names := make([]string, 0, len(packages.models))
	for name := range packages.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

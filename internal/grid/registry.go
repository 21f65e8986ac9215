package grid

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Options configures a driver. Each driver reads only the fields it needs.
type Options struct {
	URL  string // connection string (postgres)
	Path string // database file (sqlite)

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// DefaultMaxRows is the allocation of new sheets (default: DefaultMaxRows).
	DefaultMaxRows int
}

// MaxRowsOrDefault returns DefaultMaxRows when unset.
func (o Options) MaxRowsOrDefault() int {
	if o.DefaultMaxRows <= 0 {
		return DefaultMaxRows
	}
	return o.DefaultMaxRows
}

// Opener opens a workbook for a driver.
type Opener func(ctx context.Context, opts Options) (Workbook, error)

var (
	registry   = make(map[string]Opener)
	registryMu sync.RWMutex
)

// Register makes a driver available by name.
// Panics if a driver with the same name is already registered.
func Register(name string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if open == nil {
		panic("grid: Register opener is nil")
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("grid driver already registered: %s", name))
	}

	registry[name] = open
}

// Open opens a workbook with the named driver.
func Open(ctx context.Context, driver string, opts Options) (Workbook, error) {
	registryMu.RLock()
	open, ok := registry[driver]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown grid driver: %s (registered: %v)", driver, Drivers())
	}

	wb, err := open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s workbook: %w", driver, err)
	}
	return wb, nil
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

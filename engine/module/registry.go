// Package module provides the known-operation registry consulted when
// deciding whether a task record key names a module.
package module

import (
	"strings"
	"sync"
)

// Registry answers whether a name identifies a recognized module. It must be
// safe for concurrent reads.
type Registry interface {
	IsKnown(name string) bool
}

// StaticRegistry is an in-memory, mutex-guarded name set.
type StaticRegistry struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewStaticRegistry creates a registry seeded with the given module names.
func NewStaticRegistry(names ...string) *StaticRegistry {
	r := &StaticRegistry{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		r.register(name)
	}
	return r
}

// Register adds a module name to the registry. Blank names are ignored.
func (r *StaticRegistry) Register(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(name)
}

func (r *StaticRegistry) register(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	r.names[name] = struct{}{}
}

// IsKnown reports whether name was registered.
func (r *StaticRegistry) IsKnown(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Names returns the registered module names in unspecified order.
func (r *StaticRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	return names
}

// builtinModules are the stock module names shipped with the tool.
var builtinModules = []string{
	"add_host",
	"apt",
	"assemble",
	"async_status",
	"command",
	"copy",
	"cron",
	"debug",
	"fetch",
	"file",
	"git",
	"group",
	"group_by",
	"include_vars",
	"lineinfile",
	"mount",
	"ping",
	"pip",
	"raw",
	"script",
	"service",
	"setup",
	"shell",
	"slurp",
	"stat",
	"synchronize",
	"template",
	"unarchive",
	"user",
	"wait_for",
	"yum",
}

// Builtin returns a registry preloaded with the stock module names.
func Builtin() *StaticRegistry {
	return NewStaticRegistry(builtinModules...)
}

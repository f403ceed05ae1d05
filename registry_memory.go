package task

import (
	"sort"
	"sync"
)

var _ Registry = &memoryRegistry{}

type memoryRegistry struct {
	mx    sync.RWMutex
	tasks map[string]*Descriptor
}

// NewMemoryRegistry returns an empty in-memory registry.
func NewMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{
		tasks: make(map[string]*Descriptor),
	}
}

// Add stores desc. A task registered earlier under the same name is
// replaced, so the last registration wins.
func (r *memoryRegistry) Add(desc *Descriptor) bool {
	r.mx.Lock()
	defer r.mx.Unlock()

	_, exists := r.tasks[desc.Name]
	r.tasks[desc.Name] = desc
	return exists
}

func (r *memoryRegistry) Get(name string) (*Descriptor, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	desc, ok := r.tasks[name]
	return desc, ok
}

func (r *memoryRegistry) List() []*Descriptor {
	r.mx.RLock()
	defer r.mx.RUnlock()

	tasks := make([]*Descriptor, 0, len(r.tasks))
	for _, desc := range r.tasks {
		tasks = append(tasks, desc)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks
}

func (r *memoryRegistry) Names() []string {
	r.mx.RLock()
	defer r.mx.RUnlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Graph returns the dependency lists keyed by task name.
func (r *memoryRegistry) Graph() map[string][]string {
	r.mx.RLock()
	defer r.mx.RUnlock()

	graph := make(map[string][]string, len(r.tasks))
	for name, desc := range r.tasks {
		graph[name] = append([]string(nil), desc.Deps...)
	}
	return graph
}

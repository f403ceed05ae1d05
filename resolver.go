package task

type visitState int

const (
	stateUnseen visitState = iota
	stateOnStack
	stateResolved
)

// resolver holds the traversal marks and the accumulated order for a
// single Resolve call.
type resolver struct {
	graph map[string][]string
	state map[string]visitState
	order []string
}

// Resolve returns an execution order for requested where every dependency
// comes before its dependents. Roots are expanded in the order given and
// share one accumulator, so a name reached from an earlier root is not
// visited again. Dependencies missing from graph are skipped. A back-edge
// to a task that is still being expanded fails with a cycle error naming
// that task.
func Resolve(requested []string, graph map[string][]string) ([]string, error) {
	r := &resolver{
		graph: graph,
		state: make(map[string]visitState, len(graph)),
		order: make([]string, 0, len(requested)),
	}

	for _, name := range requested {
		if r.state[name] == stateResolved {
			continue
		}
		if err := r.visit(name); err != nil {
			return nil, err
		}
	}

	return r.order, nil
}

func (r *resolver) visit(name string) error {
	switch r.state[name] {
	case stateResolved:
		return nil
	case stateOnStack:
		return NewCycleError(name)
	}

	r.state[name] = stateOnStack

	for _, dep := range r.graph[name] {
		if _, ok := r.graph[dep]; !ok {
			continue
		}
		if err := r.visit(dep); err != nil {
			return err
		}
	}

	r.state[name] = stateResolved
	r.order = append(r.order, name)
	return nil
}

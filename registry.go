package task

// Registry maps task names to descriptors.
type Registry interface {
	Add(desc *Descriptor) (replaced bool)
	Get(name string) (*Descriptor, bool)
	List() []*Descriptor
	Names() []string
	Graph() map[string][]string
}

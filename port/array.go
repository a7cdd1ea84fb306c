package port

import "sort"

// ArrayInputPort is a named collection of scalar InputPorts addressed by
// a dense non-negative integer index (spec section 3 / section 4.3).
// The element set is fixed at graph-build time; closure is per-element.
type ArrayInputPort struct {
	Name     string
	elements map[int]*InputPort
}

func NewArrayInputPort(name string) *ArrayInputPort {
	return &ArrayInputPort{Name: name, elements: make(map[int]*InputPort)}
}

func (a *ArrayInputPort) Set(idx int, p *InputPort) { a.elements[idx] = p }

func (a *ArrayInputPort) At(idx int) (*InputPort, bool) {
	p, ok := a.elements[idx]
	return p, ok
}

// Elements returns the ports in ascending index order, matching the
// deterministic iteration original_source/rill/components/text.py relies
// on when reading sibling array-port elements.
func (a *ArrayInputPort) Elements() []*InputPort {
	idxs := make([]int, 0, len(a.elements))
	for i := range a.elements {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	out := make([]*InputPort, len(idxs))
	for i, idx := range idxs {
		out[i] = a.elements[idx]
	}
	return out
}

// ArrayOutputPort is the output-side counterpart of ArrayInputPort.
type ArrayOutputPort struct {
	Name     string
	elements map[int]*OutputPort
}

func NewArrayOutputPort(name string) *ArrayOutputPort {
	return &ArrayOutputPort{Name: name, elements: make(map[int]*OutputPort)}
}

func (a *ArrayOutputPort) Set(idx int, p *OutputPort) { a.elements[idx] = p }

func (a *ArrayOutputPort) At(idx int) (*OutputPort, bool) {
	p, ok := a.elements[idx]
	return p, ok
}

func (a *ArrayOutputPort) Elements() []*OutputPort {
	idxs := make([]int, 0, len(a.elements))
	for i := range a.elements {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	out := make([]*OutputPort, len(idxs))
	for i, idx := range idxs {
		out[i] = a.elements[idx]
	}
	return out
}

// Close closes every element, propagating upstream closure to each
// element's connection.
func (a *ArrayOutputPort) Close() {
	for _, p := range a.elements {
		p.Close()
	}
}

package fit

// Resolver looks up the intrinsic strip size and the rendered container size
// of a mounted element. ok is false when the element is not mounted.
type Resolver interface {
	Resolve(id string) (natural, container Size, ok bool)
}

// Applier receives the computed box for an element.
type Applier interface {
	Apply(id string, r Result)
}

// Calculator binds Compute to a set of mounted elements.
type Calculator struct {
	Resolver Resolver
	Applier  Applier
}

// ComputeFit sizes one element. Unknown ids are ignored: elements come and go
// while partial page content is swapped.
func (c *Calculator) ComputeFit(id string) {
	natural, container, ok := c.Resolver.Resolve(id)
	if !ok {
		return
	}
	c.Applier.Apply(id, Compute(natural, container))
}

// ComputeAll re-sizes every listed element.
func (c *Calculator) ComputeAll(ids []string) {
	for _, id := range ids {
		c.ComputeFit(id)
	}
}

package apitest

// collection is an ordered in-memory table keyed by id.
type collection[T any] struct {
	items []*T
	id    func(*T) *string
	owner func(*T) string
}

func newCollection[T any](id func(*T) *string, owner func(*T) string) *collection[T] {
	return &collection[T]{id: id, owner: owner}
}

func (c *collection[T]) add(v *T, nextID func() string) T {
	cp := *v
	*c.id(&cp) = nextID()
	c.items = append(c.items, &cp)
	return cp
}

func (c *collection[T]) get(id string) *T {
	for _, v := range c.items {
		if *c.id(v) == id {
			return v
		}
	}
	return nil
}

func (c *collection[T]) remove(id string) bool {
	for i, v := range c.items {
		if *c.id(v) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *collection[T]) all() []T {
	out := make([]T, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, *v)
	}
	return out
}

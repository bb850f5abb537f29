package node

import "golang.org/x/exp/slices"

// Group is an ordered collection of node IDs. A Group returned by Sorted has
// the same order on every node that sorts the same input.
type Group []ID

// Sorted returns a lexicographically ordered copy of the group.
func (g Group) Sorted() Group {
	c := g.Copy()
	slices.Sort(c)
	return c
}

// Index returns the position of id in the group.
func (g Group) Index(id ID) (int, bool) {
	i := slices.Index(g, id)
	return i, i >= 0
}

func (g Group) Contains(id ID) bool { return slices.Contains(g, id) }

func (g Group) Where(cond func(ID) bool) Group {
	res := make(Group, 0, len(g))
	for _, id := range g {
		if cond(id) {
			res = append(res, id)
		}
	}
	return res
}

func (g Group) WhereNot(ids ...ID) Group {
	return g.Where(func(id ID) bool { return !slices.Contains(ids, id) })
}

func (g Group) Copy() Group {
	if g == nil {
		return nil
	}
	return append(make(Group, 0, len(g)), g...)
}

package node

// ID identifies a node or client in the cluster. IDs are opaque strings handed
// out by the harness (e.g. "n1" for nodes, "c4" for clients).
type ID string

func (id ID) String() string { return string(id) }

package domain

// Node is the sum type over the two result shapes a report can take: a
// single *Table or a *Collection of labeled entries. Traversal is always
// a match over the two variants.
type Node interface {
	node()
}

func (*Table) node()      {}
func (*Collection) node() {}

// Collection is an ordered label→node mapping, the alternate top-level
// result shape (e.g. one table per date period). Entries may themselves
// be collections.
type Collection struct {
	labels  []string
	entries map[string]Node

	queue []Operation
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{entries: make(map[string]Node)}
}

// Set adds or replaces the entry for a label, preserving first-insertion
// order.
func (c *Collection) Set(label string, n Node) {
	if c.entries == nil {
		c.entries = make(map[string]Node)
	}
	if _, ok := c.entries[label]; !ok {
		c.labels = append(c.labels, label)
	}
	c.entries[label] = n
}

// Get returns the entry for a label.
func (c *Collection) Get(label string) (Node, bool) {
	n, ok := c.entries[label]
	return n, ok
}

// Labels returns the entry labels in insertion order.
func (c *Collection) Labels() []string {
	return c.labels
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	return len(c.labels)
}

// Operation is a named transformation of a single table. Stages run
// operations either immediately via Apply or deferred via Enqueue/Replay.
type Operation struct {
	Name string
	Fn   func(*Table) error
}

// Apply executes the operation against a node. On a table the operation
// runs exactly once with the table itself; any recursion into subtables
// is the operation's own business. On a collection the operation is
// propagated to every entry in order and never executed against the
// collection itself.
func Apply(n Node, op Operation) error {
	switch v := n.(type) {
	case *Table:
		return op.Fn(v)
	case *Collection:
		for _, label := range v.labels {
			if err := Apply(v.entries[label], op); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// Enqueue defers an operation onto the node's queue. Queued operations
// run with Apply semantics when Replay is called.
func Enqueue(n Node, op Operation) {
	switch v := n.(type) {
	case *Table:
		v.queue = append(v.queue, op)
	case *Collection:
		v.queue = append(v.queue, op)
	}
}

// Replay executes all queued operations in FIFO enqueue order and clears
// the queue. Operations enqueued during replay run in the same drain. On
// a collection, the collection's own queue drains first (each operation
// propagating to every entry), then each entry's queue.
func Replay(n Node) error {
	switch v := n.(type) {
	case *Table:
		for len(v.queue) > 0 {
			op := v.queue[0]
			v.queue = v.queue[1:]
			if err := op.Fn(v); err != nil {
				return err
			}
		}
		return nil
	case *Collection:
		for len(v.queue) > 0 {
			op := v.queue[0]
			v.queue = v.queue[1:]
			if err := Apply(Node(v), op); err != nil {
				return err
			}
		}
		for _, label := range v.labels {
			if err := Replay(v.entries[label]); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// QueueLen returns the number of pending queued operations on the node
// itself (entries of a collection are not counted).
func QueueLen(n Node) int {
	switch v := n.(type) {
	case *Table:
		return len(v.queue)
	case *Collection:
		return len(v.queue)
	default:
		return 0
	}
}

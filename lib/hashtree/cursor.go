package hashtree

// Cursor reads a previous tree forward only, in step with a live render
// walking the same positions. Every marker is consumed at most once.
//
// A nil, empty, truncated or otherwise malformed tree never causes an error;
// the affected positions simply fail to match.
type Cursor struct {
	tree Tree
	pos  int
}

// NewCursor returns a cursor at the first marker of t.
func NewCursor(t Tree) *Cursor {
	return &Cursor{tree: t}
}

// Enter consumes a Start if it is the next unread marker and reports whether
// it did. A false result means the previous render had no node at this
// position; nothing is consumed and the live node must not be compared.
func (c *Cursor) Enter() bool {
	if c == nil || c.pos >= len(c.tree) || !c.tree[c.pos].IsStart() {
		return false
	}
	c.pos++
	return true
}

// Leave skips any children of the current node that the live render did
// not visit, then consumes the node's End and returns its hash.
func (c *Cursor) Leave() (uint32, bool) {
	if c == nil {
		return 0, false
	}
	for c.pos < len(c.tree) && c.tree[c.pos].IsStart() {
		c.skip()
	}
	if c.pos >= len(c.tree) {
		return 0, false
	}
	h, _ := c.tree[c.pos].Hash()
	c.pos++
	return h, true
}

// skip consumes one whole subtree starting at a Start marker.
func (c *Cursor) skip() {
	depth := 0
	for c.pos < len(c.tree) {
		if c.tree[c.pos].IsStart() {
			depth++
		} else {
			depth--
		}
		c.pos++
		if depth == 0 {
			return
		}
	}
}

// Pos returns the index of the next unread marker.
func (c *Cursor) Pos() int {
	if c == nil {
		return 0
	}
	return c.pos
}

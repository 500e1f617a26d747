package hxview

import (
	"fmt"
	"net/http"
	"slices"
	"unicode/utf8"

	"github.com/a-h/templ"

	"github.com/pthm/hxview/lib/hashing"
	"github.com/pthm/hxview/lib/hashtree"
)

// Unchanged is written in place of a subtree whose hash matches the
// previous render at the same position.
const Unchanged = "<!--unchanged-->"

// HashAttr carries an element's structural hash as 8 lowercase hex digits.
const HashAttr = "data-hx-hash"

const (
	hashPlaceholder = ` ` + HashAttr + `="00000000"`
	hashDigitsAt    = len(` ` + HashAttr + `="`)
	hashWidth       = 8
	hexDigits       = "0123456789abcdef"
)

// DefaultHashlessTags never receive a hash attribute and are never replaced
// by the unchanged placeholder. Everything inside head is treated the same.
var DefaultHashlessTags = []string{"html", "head", "body"}

var defaultHashless = tagSet(DefaultHashlessTags)

func tagSet(tags []string) map[string]struct{} {
	m := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		m[t] = struct{}{}
	}
	return m
}

// StyleRef is a pre-hashed style definition collected during a render.
// The renderer only dedups references by Hash; assembling a stylesheet is
// left to the caller.
type StyleRef struct {
	Hash uint32
	CSS  string
}

// node is one entry of the flat pre-order record kept during a render.
type node struct {
	start, end int
	hash       uint32
	size       int // number of descendants
	pinned     bool
}

// Renderer accumulates the HTML of one render together with the structural
// hash of every node.
//
// A Renderer has a single owner. Fragments split work across renderers taken
// from the Context pool and splice them back with Append in source order.
type Renderer struct {
	buf       []byte
	header    http.Header
	styles    []StyleRef
	styleSeen map[uint32]struct{}
	hashers   hashing.Stack
	scratch   *hashing.Hasher
	nodes     []node
	open      []*ElementScope
	update    bool
	hashless  map[string]struct{}
	headDepth int
}

// NewRenderer returns an empty renderer for a full (non-update) render.
func NewRenderer() *Renderer {
	r := &Renderer{
		header:    make(http.Header),
		styleSeen: make(map[uint32]struct{}),
		scratch:   hashing.New(),
	}
	r.hashers.Push()
	return r
}

// Reset clears the renderer for reuse and keeps allocated capacity.
func (r *Renderer) Reset() {
	r.buf = r.buf[:0]
	clear(r.header)
	r.styles = r.styles[:0]
	clear(r.styleSeen)
	r.hashers.Reset()
	r.hashers.Push()
	r.nodes = r.nodes[:0]
	clear(r.open)
	r.open = r.open[:0]
	r.update = false
	r.hashless = nil
	r.headDepth = 0
}

// IsUpdate reports whether this render answers an update request.
func (r *Renderer) IsUpdate() bool {
	return r.update
}

// Header returns the response headers collected so far.
func (r *Renderer) Header() http.Header {
	return r.header
}

// AddStyle records a style reference once per hash, in first-seen order.
func (r *Renderer) AddStyle(s StyleRef) {
	if _, ok := r.styleSeen[s.Hash]; ok {
		return
	}
	r.styleSeen[s.Hash] = struct{}{}
	r.styles = append(r.styles, s)
}

// Root returns the hash of everything rendered at the top level so far.
func (r *Renderer) Root() uint32 {
	return r.hashers.Bottom().Sum32()
}

// Len returns the number of bytes written.
func (r *Renderer) Len() int {
	return len(r.buf)
}

func (r *Renderer) empty() bool {
	return len(r.buf) == 0 && len(r.nodes) == 0 && len(r.header) == 0 && len(r.styles) == 0
}

func (r *Renderer) isHashless(tag string) bool {
	set := r.hashless
	if set == nil {
		set = defaultHashless
	}
	_, ok := set[tag]
	return ok
}

// enterContent closes the opening tag of the innermost element, if it is
// still accepting attributes.
func (r *Renderer) enterContent() {
	if n := len(r.open); n > 0 {
		r.open[n-1].begin()
	}
}

// StartElement writes the opening of tag and returns its scope. Unless tag
// is hashless, a fixed-width hash attribute is reserved right after the tag
// name and patched when the scope ends.
func (r *Renderer) StartElement(tag string) *ElementScope {
	r.enterContent()

	pinned := r.headDepth > 0 || r.isHashless(tag)
	s := &ElementScope{
		r:      r,
		tag:    tag,
		depth:  len(r.open),
		node:   len(r.nodes),
		hashAt: -1,
	}
	r.nodes = append(r.nodes, node{start: len(r.buf), pinned: pinned})

	r.buf = append(r.buf, '<')
	r.buf = append(r.buf, tag...)
	if !pinned {
		s.hashAt = len(r.buf) + hashDigitsAt
		r.buf = append(r.buf, hashPlaceholder...)
	}
	if tag == "head" {
		r.headDepth++
		s.head = true
	}

	h := r.hashers.Push()
	h.WriteString(tag)
	_ = h.WriteByte(0)

	r.open = append(r.open, s)
	return s
}

// Leaf kinds. Text and Raw of the same string write different bytes, so
// their hashes must differ too.
const (
	leafText byte = 't'
	leafRaw  byte = 'r'
)

// Text writes escaped text as a leaf node hashed over the unescaped value.
func (r *Renderer) Text(s string) {
	r.leaf(templ.EscapeString(s), hashing.Sum32Kind(leafText, s))
}

// Raw writes s verbatim as a leaf node. The caller is responsible for s
// being well-formed HTML.
func (r *Renderer) Raw(s string) {
	r.leaf(s, hashing.Sum32Kind(leafRaw, s))
}

// leaf writes a node without children and folds its hash into the parent.
func (r *Renderer) leaf(out string, hash uint32) {
	r.enterContent()
	start := len(r.buf)
	r.buf = append(r.buf, out...)
	r.nodes = append(r.nodes, node{
		start:  start,
		end:    len(r.buf),
		hash:   hash,
		pinned: r.headDepth > 0,
	})
	r.hashers.Top().WriteUint32(hash)
}

// untracked writes bytes that belong to no node. They are never hashed and
// always survive reconciliation.
func (r *Renderer) untracked(s string) {
	r.buf = append(r.buf, s...)
}

// foldBytes mixes b into the innermost open hash without writing output.
func (r *Renderer) foldBytes(b []byte) {
	r.hashers.Top().Write(b)
}

// Append splices a finished renderer into this one. Bytes and nodes keep
// their order, headers and styles are merged, and the other renderer's root
// hash is folded in as a single value.
func (r *Renderer) Append(other *Renderer) error {
	if n := len(other.open); n > 0 {
		return fmt.Errorf("%w: appending renderer with <%s> still open", ErrScopeOrder, other.open[n-1].tag)
	}
	r.enterContent()

	base := len(r.buf)
	r.buf = append(r.buf, other.buf...)
	for _, n := range other.nodes {
		n.start += base
		n.end += base
		r.nodes = append(r.nodes, n)
	}
	r.hashers.Top().WriteUint32(other.Root())
	r.merge(other.header, other.styles)
	return nil
}

// merge adds headers and styles produced elsewhere. A header key already
// present accumulates values rather than being replaced.
func (r *Renderer) merge(header http.Header, styles []StyleRef) {
	for k, vs := range header {
		r.header[k] = append(r.header[k], vs...)
	}
	for _, s := range styles {
		r.AddStyle(s)
	}
}

// Output is a finalized render.
type Output struct {
	HTML     string
	Header   http.Header
	Styles   []StyleRef
	HashTree hashtree.Tree
	Root     uint32

	// Changed is false when the previous tree carried the same root hash.
	Changed bool

	// Suppressed counts the subtrees replaced by the unchanged placeholder.
	Suppressed int
}

// Finalize reconciles the render against prev and packages the result.
// A nil prev suppresses nothing.
func (r *Renderer) Finalize(prev hashtree.Tree) (*Output, error) {
	if n := len(r.open); n > 0 {
		return nil, fmt.Errorf("%w: <%s> never closed", ErrScopeOrder, r.open[n-1].tag)
	}

	rc := reconciler{
		nodes: r.nodes,
		buf:   r.buf,
		cur:   hashtree.NewCursor(prev),
		out:   make([]byte, 0, len(r.buf)),
	}
	for i := 0; i < len(r.nodes); {
		i = rc.visit(i)
	}
	rc.copyTo(len(r.buf))

	if !utf8.Valid(rc.out) {
		return nil, ErrInvalidUTF8
	}

	root := r.Root()
	prevRoot, ok := prev.Root()
	return &Output{
		HTML:       string(rc.out),
		Header:     r.header.Clone(),
		Styles:     slices.Clone(r.styles),
		HashTree:   r.tree(),
		Root:       root,
		Changed:    !ok || prevRoot != root,
		Suppressed: rc.suppressed,
	}, nil
}

// tree rebuilds the Start/End sequence from the node record.
func (r *Renderer) tree() hashtree.Tree {
	t := make(hashtree.Tree, 0, 2*len(r.nodes)+1)
	stack := make([]int, 0, 16)
	for i := range r.nodes {
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top+r.nodes[top].size >= i {
				break
			}
			t = append(t, hashtree.End(r.nodes[top].hash))
			stack = stack[:len(stack)-1]
		}
		t = append(t, hashtree.Start())
		stack = append(stack, i)
	}
	for k := len(stack) - 1; k >= 0; k-- {
		t = append(t, hashtree.End(r.nodes[stack[k]].hash))
	}
	return append(t, hashtree.End(r.Root()))
}

// reconciler copies the render buffer while walking nodes in source order
// alongside a cursor over the previous tree. A node is compared only when
// the previous tree had a node at the same position; a node whose hash is
// unchanged is replaced by the placeholder.
type reconciler struct {
	nodes      []node
	buf        []byte
	cur        *hashtree.Cursor
	out        []byte
	pos        int
	suppressed int
}

func (rc *reconciler) copyTo(pos int) {
	if pos > rc.pos {
		rc.out = append(rc.out, rc.buf[rc.pos:pos]...)
		rc.pos = pos
	}
}

// visit handles node i and its subtree and returns the index after it.
func (rc *reconciler) visit(i int) int {
	n := rc.nodes[i]
	next := i + 1 + n.size

	rc.copyTo(n.start)
	if !rc.cur.Enter() {
		rc.copyTo(n.end)
		return next
	}

	mark, before := len(rc.out), rc.suppressed
	for j := i + 1; j < next; {
		j = rc.visit(j)
	}
	rc.copyTo(n.end)

	if h, ok := rc.cur.Leave(); ok && h == n.hash && !n.pinned {
		rc.out = append(rc.out[:mark], Unchanged...)
		rc.suppressed = before + 1
	}
	return next
}

func writeHex(dst []byte, h uint32) {
	for i := hashWidth - 1; i >= 0; i-- {
		dst[i] = hexDigits[h&0xf]
		h >>= 4
	}
}

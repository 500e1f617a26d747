package hxview

import (
	"fmt"

	"github.com/a-h/templ"
)

type scopeState uint8

const (
	scopeAttrs scopeState = iota
	scopeContent
	scopeClosed
)

// ElementScope is the open state of one element: attributes first, then
// content, then End. It borrows its Renderer until End is called, and only
// the innermost open scope of a renderer may be written to.
type ElementScope struct {
	r      *Renderer
	tag    string
	depth  int
	node   int
	hashAt int
	attrs  uint32
	state  scopeState
	head   bool
}

// Tag returns the element's tag name.
func (s *ElementScope) Tag() string {
	return s.tag
}

// HashOffset returns the byte offset of the reserved hash digits, or false
// for hashless elements.
func (s *ElementScope) HashOffset() (int, bool) {
	return s.hashAt, s.hashAt >= 0
}

func (s *ElementScope) check() error {
	if s.state == scopeClosed {
		return fmt.Errorf("%w: <%s>", ErrScopeClosed, s.tag)
	}
	if s.depth != len(s.r.open)-1 || s.r.open[s.depth] != s {
		return fmt.Errorf("%w: <%s> is not the innermost open element", ErrScopeOrder, s.tag)
	}
	return nil
}

// Attribute writes name="value" with value escaped. Attribute hashes are
// summed, so the element hash does not depend on the order attributes are
// written in.
func (s *ElementScope) Attribute(name, value string) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.state != scopeAttrs {
		return fmt.Errorf("%w: %s on <%s>", ErrAttributeAfterContent, name, s.tag)
	}
	r := s.r
	r.buf = append(r.buf, ' ')
	r.buf = append(r.buf, name...)
	r.buf = append(r.buf, '=', '"')
	r.buf = append(r.buf, templ.EscapeString(value)...)
	r.buf = append(r.buf, '"')
	s.attrs += s.pairHash(name, value, false)
	return nil
}

// EmptyAttribute writes a boolean attribute such as disabled.
func (s *ElementScope) EmptyAttribute(name string) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.state != scopeAttrs {
		return fmt.Errorf("%w: %s on <%s>", ErrAttributeAfterContent, name, s.tag)
	}
	s.r.buf = append(s.r.buf, ' ')
	s.r.buf = append(s.r.buf, name...)
	s.attrs += s.pairHash(name, "", true)
	return nil
}

func (s *ElementScope) pairHash(name, value string, empty bool) uint32 {
	h := s.r.scratch
	h.Reset()
	h.WriteString(name)
	if empty {
		_ = h.WriteByte(1)
		return h.Sum32()
	}
	_ = h.WriteByte(0)
	h.WriteString(value)
	return h.Sum32()
}

// begin switches to content mode. The opening tag is closed exactly once.
func (s *ElementScope) begin() {
	if s.state != scopeAttrs {
		return
	}
	s.r.buf = append(s.r.buf, '>')
	s.r.hashers.Top().WriteUint32(s.attrs)
	s.state = scopeContent
}

// Content closes the opening tag if needed and renders v as children. It may
// be called any number of times before End.
func (s *ElementScope) Content(c *Context, v View) error {
	if err := s.check(); err != nil {
		return err
	}
	s.begin()
	if v == nil {
		return nil
	}
	return v.Render(c, s.r)
}

// End closes the element, patches its hash into the reserved attribute and
// folds it into the parent. A void element without content is written in
// self-closing form.
func (s *ElementScope) End(void bool) error {
	if err := s.check(); err != nil {
		return err
	}
	r := s.r
	switch {
	case s.state == scopeAttrs && void:
		r.hashers.Top().WriteUint32(s.attrs)
		r.buf = append(r.buf, '/', '>')
	case s.state == scopeAttrs:
		s.begin()
		fallthrough
	default:
		if !void {
			r.buf = append(r.buf, '<', '/')
			r.buf = append(r.buf, s.tag...)
			r.buf = append(r.buf, '>')
		}
	}

	h := r.hashers.Pop()
	if s.hashAt >= 0 {
		writeHex(r.buf[s.hashAt:s.hashAt+hashWidth], h)
	}
	r.hashers.Top().WriteUint32(h)

	n := &r.nodes[s.node]
	n.end = len(r.buf)
	n.hash = h
	n.size = len(r.nodes) - s.node - 1

	r.open[s.depth] = nil
	r.open = r.open[:s.depth]
	if s.head {
		r.headDepth--
	}
	s.state = scopeClosed
	return nil
}

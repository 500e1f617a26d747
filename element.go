package hxview

import (
	"fmt"
	"sort"

	"github.com/a-h/templ"
)

// Element is a builder for a single HTML element.
//
//	hxview.El("ul", items...).Attr("class", "list")
//	hxview.Void("input").Attr("name", "q").Flag("autofocus")
type Element struct {
	tag      string
	attrs    []elemAttr
	children []View
	void     bool
}

type elemAttr struct {
	name  string
	value string
	empty bool
}

// El creates an element with children.
func El(tag string, children ...View) *Element {
	return &Element{tag: tag, children: children}
}

// Void creates a void element such as br or input. Void elements never
// render children.
func Void(tag string) *Element {
	return &Element{tag: tag, void: true}
}

// Attr adds an attribute.
func (e *Element) Attr(name, value string) *Element {
	e.attrs = append(e.attrs, elemAttr{name: name, value: value})
	return e
}

// Flag adds a boolean attribute.
func (e *Element) Flag(name string) *Element {
	e.attrs = append(e.attrs, elemAttr{name: name, empty: true})
	return e
}

// Attrs adds templ attributes. Keys are written in sorted order so output
// does not depend on map iteration.
func (e *Element) Attrs(attrs templ.Attributes) *Element {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case bool:
			if v {
				e.Flag(k)
			}
		case string:
			e.Attr(k, v)
		default:
			e.Attr(k, fmt.Sprint(v))
		}
	}
	return e
}

// Child appends children.
func (e *Element) Child(children ...View) *Element {
	e.children = append(e.children, children...)
	return e
}

// Render writes the element.
func (e *Element) Render(c *Context, r *Renderer) error {
	s := r.StartElement(e.tag)
	for _, a := range e.attrs {
		var err error
		if a.empty {
			err = s.EmptyAttribute(a.name)
		} else {
			err = s.Attribute(a.name, a.value)
		}
		if err != nil {
			return err
		}
	}
	if !e.void {
		switch len(e.children) {
		case 0:
		case 1:
			if err := s.Content(c, e.children[0]); err != nil {
				return err
			}
		default:
			if err := s.Content(c, Fragment(e.children)); err != nil {
				return err
			}
		}
	}
	return s.End(e.void)
}

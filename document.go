package hxview

import "fmt"

type document struct {
	head View
	body View
}

// Document wraps a page in the html, head and body elements.
//
// The wrapper and everything inside head belong to no tree node: they are
// written on full renders and skipped on update renders, which emit only
// the body content. Both kinds of render therefore produce trees of the
// same shape and can be reconciled against each other.
func Document(head, body View) View {
	return document{head: head, body: body}
}

func (d document) Render(c *Context, r *Renderer) error {
	if r.IsUpdate() {
		return renderOptional(c, r, d.body)
	}

	r.enterContent()
	r.untracked("<!DOCTYPE html><html><head>")
	if d.head != nil {
		head := c.acquire(r)
		defer c.release(head)
		head.headDepth++
		if err := d.head.Render(c, head); err != nil {
			return err
		}
		if n := len(head.open); n > 0 {
			return fmt.Errorf("%w: <%s> never closed in head", ErrScopeOrder, head.open[n-1].tag)
		}
		r.untracked(string(head.buf))
		r.merge(head.header, head.styles)
	}
	r.untracked("</head><body>")
	if err := renderOptional(c, r, d.body); err != nil {
		return err
	}
	r.untracked("</body></html>")
	return nil
}

func renderOptional(c *Context, r *Renderer, v View) error {
	if v == nil {
		return nil
	}
	return v.Render(c, r)
}

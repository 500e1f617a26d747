package hxview

import "fmt"

// View is anything that can render itself into a Renderer.
//
// Views are values: rendering the same view twice with the same inputs must
// produce the same bytes and the same hash tree.
//
//	func greeting(name string) hxview.View {
//	    return hxview.El("p", hxview.Text("Hello, "), hxview.Text(name))
//	}
type View interface {
	Render(c *Context, r *Renderer) error
}

// ViewFunc adapts a function to the View interface.
type ViewFunc func(c *Context, r *Renderer) error

// Render calls f.
func (f ViewFunc) Render(c *Context, r *Renderer) error {
	return f(c, r)
}

// suspender marks views whose rendering may block. Fragments render them
// concurrently instead of inline.
type suspender interface {
	View
	suspends()
}

type textView string

func (t textView) Render(_ *Context, r *Renderer) error {
	r.Text(string(t))
	return nil
}

// Text renders escaped text.
func Text(s string) View {
	return textView(s)
}

// Textf renders formatted, escaped text.
func Textf(format string, args ...any) View {
	return textView(fmt.Sprintf(format, args...))
}

type rawView string

func (v rawView) Render(_ *Context, r *Renderer) error {
	r.Raw(string(v))
	return nil
}

// Raw renders s without escaping.
func Raw(s string) View {
	return rawView(s)
}

type nothing struct{}

func (nothing) Render(*Context, *Renderer) error { return nil }

// Nothing renders no output and no node.
func Nothing() View {
	return nothing{}
}

// If renders v when cond holds and nothing otherwise.
func If(cond bool, v View) View {
	if cond {
		return v
	}
	return nothing{}
}

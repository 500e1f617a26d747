package hxview

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// Fragment renders sibling views in order.
//
// Plain children render straight into the current renderer. Suspending
// children (Async views and component instances) are queued, and whatever
// follows them renders into a fresh renderer from the pool. Once all
// children are visited the queued ones run concurrently, and every piece is
// spliced back in source order, so output and tree positions never depend
// on which child finished first.
type Fragment []View

// Child returns f with v appended.
func (f Fragment) Child(v View) Fragment {
	return append(f, v)
}

type segment struct {
	view View
	r    *Renderer
}

// Render implements View.
func (f Fragment) Render(c *Context, r *Renderer) error {
	var segs []segment
	tail := r
	for _, child := range f {
		if child == nil {
			continue
		}
		if _, ok := child.(suspender); ok {
			tail = c.acquire(r)
			segs = append(segs, segment{view: child}, segment{r: tail})
			continue
		}
		if err := child.Render(c, tail); err != nil {
			releaseSegments(c, segs)
			return err
		}
	}
	if len(segs) == 0 {
		return nil
	}
	return resolve(c, r, segs)
}

// resolve runs the queued views concurrently, then appends every segment to
// r in order.
func resolve(c *Context, r *Renderer, segs []segment) error {
	p := pool.New().
		WithContext(c.Context()).
		WithCancelOnError().
		WithFirstError()
	for i := range segs {
		if segs[i].view == nil {
			continue
		}
		sub := c.acquire(r)
		segs[i].r = sub
		view := segs[i].view
		p.Go(func(ctx context.Context) error {
			return view.Render(c.withContext(ctx), sub)
		})
	}

	err := p.Wait()
	if err == nil {
		for _, s := range segs {
			if s.view == nil && s.r.empty() {
				continue
			}
			if err = r.Append(s.r); err != nil {
				break
			}
		}
	}
	releaseSegments(c, segs)
	return err
}

func releaseSegments(c *Context, segs []segment) {
	for _, s := range segs {
		c.release(s.r)
	}
}

type asyncView struct {
	fn func(ctx context.Context) (View, error)
}

// Async defers producing a view. Inside a Fragment it is resolved
// concurrently with its suspending siblings; elsewhere it runs inline.
func Async(fn func(ctx context.Context) (View, error)) View {
	return asyncView{fn: fn}
}

func (a asyncView) Render(c *Context, r *Renderer) error {
	v, err := a.fn(c.Context())
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return v.Render(c, r)
}

func (asyncView) suspends() {}

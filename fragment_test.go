package hxview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func after(d time.Duration, v View) View {
	return Async(func(ctx context.Context) (View, error) {
		select {
		case <-time.After(d):
			return v, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

func TestFragmentKeepsSourceOrder(t *testing.T) {
	view := Fragment{
		Text("a"),
		after(50*time.Millisecond, El("b", Text("slow"))),
		Text("c"),
		after(0, El("i", Text("fast"))),
		Text("e"),
	}

	out := render(t, view)
	if got := strip(out.HTML); got != `a<b>slow</b>c<i>fast</i>e` {
		t.Errorf("HTML = %q, want source order", got)
	}
	if err := out.HashTree.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if n := out.HashTree.Nodes(); n != 7 {
		t.Errorf("Nodes() = %d, want 7", n)
	}
}

func TestFragmentTreeIsStableAcrossRuns(t *testing.T) {
	view := Fragment{after(20*time.Millisecond, Text("x")), after(0, Text("y"))}

	first := render(t, view)
	for i := 0; i < 5; i++ {
		if again := render(t, view); !first.HashTree.Equal(again.HashTree) {
			t.Fatalf("run %d: tree %v, want %v", i, again.HashTree, first.HashTree)
		}
	}

	if second := rerender(t, view, first.HashTree); second.HTML != Unchanged+Unchanged {
		t.Errorf("rerender HTML = %q, want two placeholders", second.HTML)
	}
}

func TestFragmentRunsAsyncSiblingsConcurrently(t *testing.T) {
	left, right := make(chan struct{}), make(chan struct{})

	// Each side waits for the other, so sequential rendering would time out.
	meet := func(mine, theirs chan struct{}, name string) View {
		return Async(func(ctx context.Context) (View, error) {
			close(mine)
			select {
			case <-theirs:
				return Text(name), nil
			case <-time.After(2 * time.Second):
				return nil, errors.New(name + " rendered alone")
			}
		})
	}

	if out := render(t, Fragment{meet(left, right, "L"), meet(right, left, "R")}); out.HTML != "LR" {
		t.Errorf("HTML = %q, want LR", out.HTML)
	}
}

func TestFragmentErrorCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	cancelled := make(chan struct{})

	view := Fragment{
		Async(func(ctx context.Context) (View, error) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}),
		Async(func(context.Context) (View, error) {
			return nil, boom
		}),
	}

	_, err := NewContext(context.Background()).Render(view)
	if !errors.Is(err, boom) {
		t.Errorf("Render() error = %v, want %v", err, boom)
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("sibling was not cancelled")
	}
}

func TestAsyncOutsideFragmentRendersInline(t *testing.T) {
	out := render(t, El("p", Async(func(context.Context) (View, error) {
		return Text("inline"), nil
	})))
	if got := strip(out.HTML); got != `<p>inline</p>` {
		t.Errorf("HTML = %q", got)
	}
}

func TestFragmentSkipsNilChildren(t *testing.T) {
	out := render(t, Fragment{nil, Text("a"), Nothing(), If(false, Text("b")), If(true, Text("c"))})
	if out.HTML != "ac" {
		t.Errorf("HTML = %q, want ac", out.HTML)
	}
	if n := out.HashTree.Nodes(); n != 2 {
		t.Errorf("Nodes() = %d, want 2", n)
	}
}

func TestAsyncUnderHeadStaysHashless(t *testing.T) {
	out := render(t, El("head", Fragment{after(0, El("title", Text("t")))}))
	if strings.Contains(out.HTML, HashAttr) {
		t.Errorf("HTML = %q, want no hash attributes under head", out.HTML)
	}
}

func TestFragmentPoolReusesRenderers(t *testing.T) {
	c := NewContext(context.Background())
	view := Fragment{after(0, Text("a")), after(0, Text("b"))}

	if _, err := c.Render(view); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	pooled := len(c.req.free)
	if pooled == 0 {
		t.Fatal("no renderers returned to the pool")
	}

	if _, err := c.Render(view); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := len(c.req.free); got != pooled {
		t.Errorf("pool size = %d after second render, want %d", got, pooled)
	}
}

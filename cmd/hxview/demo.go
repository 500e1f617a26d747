package main

import (
	"context"

	"github.com/pthm/hxview"
)

//go:generate go run . generate .

//hxview:state
type counterState struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// newCounter builds the demo counter. Its buttons post to a registry
// mounted at base.
func newCounter(base string) *hxview.Component[counterState] {
	var counter *hxview.Component[counterState]
	counter = hxview.New("demo", "Counter", func(_ context.Context, s counterState) (hxview.View, error) {
		inst := counter.Mount(s.Key, s)
		return hxview.El("div",
			hxview.El("p", hxview.Textf("%d", s.Count)),
			hxview.El("button", hxview.Text("-")).Attrs(hxview.WireAttrs(base, inst, "decrement")),
			hxview.El("button", hxview.Text("+")).Attrs(hxview.WireAttrs(base, inst, "increment")),
			hxview.El("button", hxview.Text("reset")).Attrs(hxview.WireAttrs(base, inst, "reset")),
		).Attr("class", "counter"), nil
	})

	counter.Action("increment", func(_ context.Context, s counterState, _ hxview.Payload) hxview.Result[counterState] {
		s.Count++
		return hxview.OK(s)
	})
	counter.Action("decrement", func(_ context.Context, s counterState, _ hxview.Payload) hxview.Result[counterState] {
		s.Count--
		return hxview.OK(s)
	})
	counter.Action("reset", func(_ context.Context, s counterState, _ hxview.Payload) hxview.Result[counterState] {
		s.Count = 0
		return hxview.OK(s).Flash(hxview.FlashSuccess, "Counter reset!")
	})
	return counter
}

func demoPage(counter *hxview.Component[counterState]) hxview.PageFunc {
	return func(*hxview.Context) (hxview.View, error) {
		head := hxview.Fragment{
			hxview.Void("meta").Attr("charset", "utf-8"),
			hxview.El("title", hxview.Text("hxview demo")),
			hxview.El("script").Attr("src", "https://unpkg.com/htmx.org@2.0.4"),
		}
		body := hxview.Fragment{
			hxview.El("h1", hxview.Text("Counters")),
			counter.Mount("first", counterState{Key: "first"}),
			counter.Mount("second", counterState{Key: "second", Count: 10}),
			hxview.Async(func(context.Context) (hxview.View, error) {
				return hxview.El("footer", hxview.Text("rendered by hxview")), nil
			}),
			hxview.Toasts(nil),
		}
		return hxview.Document(head, body), nil
	}
}

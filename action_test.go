package hxview

import (
	"context"
	"net/http"
	"strconv"
	"testing"
)

func newActionComponent() *Component[counterState] {
	c := New("shop", "Cart", func(context.Context, counterState) (View, error) {
		return Nothing(), nil
	})
	noop := func(_ context.Context, s counterState, _ Payload) Result[counterState] { return OK(s) }
	c.Action("add", noop)
	c.Action("rename", noop).Method(http.MethodPut)
	c.Action("tweak", noop).Method(http.MethodPatch)
	c.Action("remove", noop).Method(http.MethodDelete)
	return c
}

func TestActionDefaultMethod(t *testing.T) {
	c := newActionComponent()

	m, ok := c.method("add")
	if !ok {
		t.Fatal("method(add) not found")
	}
	if m != http.MethodPost {
		t.Errorf("method(add) = %q, want %q", m, http.MethodPost)
	}
	if _, ok := c.method("missing"); ok {
		t.Error("method(missing) found, want not found")
	}
}

func TestActionMethodOverride(t *testing.T) {
	c := newActionComponent()

	tests := []struct {
		action string
		want   string
	}{
		{"rename", http.MethodPut},
		{"tweak", http.MethodPatch},
		{"remove", http.MethodDelete},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			if m, _ := c.method(tt.action); m != tt.want {
				t.Errorf("method(%s) = %q, want %q", tt.action, m, tt.want)
			}
		})
	}
}

func TestActionPath(t *testing.T) {
	id := ComponentID{Module: "shop", Name: "Cart"}

	tests := []struct {
		base   string
		action string
		want   string
	}{
		{"", "add", "/shop.Cart/add"},
		{"/_c", "add", "/_c/shop.Cart/add"},
		{"_c/", "add", "/_c/shop.Cart/add"},
		{"/_c", "", "/_c/shop.Cart"},
	}
	for _, tt := range tests {
		if got := ActionPath(tt.base, id, tt.action); got != tt.want {
			t.Errorf("ActionPath(%q, %v, %q) = %q, want %q", tt.base, id, tt.action, got, tt.want)
		}
	}
}

func TestWireAttrs(t *testing.T) {
	c := newActionComponent()
	inst := c.Mount("k", counterState{})

	tests := []struct {
		action   string
		wantAttr string
	}{
		{"add", "hx-post"},
		{"rename", "hx-put"},
		{"tweak", "hx-patch"},
		{"remove", "hx-delete"},
		{"unregistered", "hx-post"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			attrs := WireAttrs("/_c", inst, tt.action)

			want := "/_c/shop.Cart/" + tt.action
			if attrs[tt.wantAttr] != want {
				t.Errorf("%s = %v, want %q", tt.wantAttr, attrs[tt.wantAttr], want)
			}
			if attrs["hx-ext"] != "hxview" {
				t.Errorf("hx-ext = %v, want %q", attrs["hx-ext"], "hxview")
			}
			if attrs["data-hx-target"] != strconv.FormatUint(uint64(inst.ID()), 10) {
				t.Errorf("data-hx-target = %v, want instance id %d", attrs["data-hx-target"], inst.ID())
			}
			if len(attrs) != 3 {
				t.Errorf("len(attrs) = %d, want 3", len(attrs))
			}
		})
	}
}

func TestWireAttrsOnElement(t *testing.T) {
	c := newActionComponent()
	inst := c.Mount("k", counterState{})

	result, err := TestRender(El("button", Text("+")).Attrs(WireAttrs("", inst, "add")))
	if err != nil {
		t.Fatalf("TestRender() error = %v", err)
	}

	want := `<button data-hx-target="` + strconv.FormatUint(uint64(inst.ID()), 10) +
		`" hx-ext="hxview" hx-post="/shop.Cart/add">+</button>`
	if got := strip(result.HTML); got != want {
		t.Errorf("button = %q, want %q", got, want)
	}
}

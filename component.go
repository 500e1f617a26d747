package hxview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pthm/hxview/lib/hashing"
	"github.com/pthm/hxview/lib/hashtree"
	"github.com/pthm/hxview/lib/telemetry"
)

// ComponentID names a component definition: the module (usually the Go
// package) that declares it and its name within that module.
type ComponentID struct {
	Module string
	Name   string
}

func (id ComponentID) String() string {
	return id.Module + "." + id.Name
}

// InstanceID derives the id of one mounted instance from the component id
// and the key it was mounted with. The result is never 0, which addresses
// every instance in events.
func InstanceID(id ComponentID, key string) uint32 {
	h := hashing.New()
	h.WriteString(id.Module)
	_ = h.WriteByte(0)
	h.WriteString(id.Name)
	_ = h.WriteByte(0)
	h.WriteString(key)
	if v := h.Sum32(); v != 0 {
		return v
	}
	return 1
}

// ComponentTag is the element wrapping every component instance.
const ComponentTag = "hx-component"

// StateView produces the view of a component for a given state.
type StateView[S any] func(ctx context.Context, state S) (View, error)

// ActionFunc handles a named action against the current state.
type ActionFunc[S any] func(ctx context.Context, state S, payload Payload) Result[S]

// Component[S] is a server component whose state S survives between
// requests. The state is shipped to the client next to the rendered HTML,
// together with the component's own hash tree, so a later request can
// restore it and re-render only what changed.
//
// S must round-trip through encoding/json (and msgpack when a SealedCodec is
// in use).
//
// Example:
//
//	type CounterState struct{ Count int `json:"count"` }
//
//	var Counter = hxview.New("demo", "Counter",
//	    func(ctx context.Context, s CounterState) (hxview.View, error) {
//	        return hxview.El("p", hxview.Textf("%d", s.Count)), nil
//	    })
//
//	func init() {
//	    Counter.Action("increment", func(ctx context.Context, s CounterState, _ hxview.Payload) hxview.Result[CounterState] {
//	        s.Count++
//	        return hxview.OK(s)
//	    })
//	}
//
// Each mount site then renders Counter.Mount("main", CounterState{}).
type Component[S any] struct {
	id       ComponentID
	view     StateView[S]
	next     func(S) S
	hydrater Hydrater[S]
	actions  map[string]ActionFunc[S]
	methods  map[string]string
}

// New creates a component definition.
func New[S any](module, name string, view StateView[S]) *Component[S] {
	return &Component[S]{
		id:      ComponentID{Module: module, Name: name},
		view:    view,
		actions: make(map[string]ActionFunc[S]),
		methods: make(map[string]string),
	}
}

// ID returns the component id.
func (c *Component[S]) ID() ComponentID {
	return c.id
}

// Next sets a transition applied to every restored state before actions
// and rendering. A fresh mount uses its initial state as is.
func (c *Component[S]) Next(fn func(S) S) *Component[S] {
	c.next = fn
	return c
}

// Hydrate sets the hydrater run before every view render.
func (c *Component[S]) Hydrate(h Hydrater[S]) *Component[S] {
	c.hydrater = h
	return c
}

// Action registers a named action handler with default POST method.
//
// Actions use semantic names that describe intent (increment, delete,
// approve) rather than HTTP methods. The same name doubles as an event id:
// a page update whose event id matches runs the action on the addressed
// instance before it renders.
//
// Returns *ActionBuilder to optionally override the HTTP method:
//
//	c.Action("increment", increment)  // POST by default
//	c.Action("rename", rename).Method(http.MethodPut)
func (c *Component[S]) Action(name string, fn ActionFunc[S]) *ActionBuilder {
	c.actions[name] = fn
	c.methods[name] = http.MethodPost
	return &ActionBuilder{methods: c.methods, name: name}
}

// Actions returns the registered action names, sorted.
func (c *Component[S]) Actions() []string {
	names := make([]string, 0, len(c.actions))
	for name := range c.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Component[S]) method(action string) (string, bool) {
	m, ok := c.methods[action]
	return m, ok
}

// Mount returns a view of one instance of the component. key tells
// instances of the same component apart and must be stable across renders;
// the instance id derives from it. initial is used unless a previous state
// for the instance is restored.
func (c *Component[S]) Mount(key string, initial S) *Instance[S] {
	return &Instance[S]{comp: c, key: key, initial: initial}
}

// Instance is a mounted component. Instances suspend inside fragments, so
// sibling instances render concurrently.
type Instance[S any] struct {
	comp    *Component[S]
	key     string
	initial S
}

// ID returns the instance id.
func (i *Instance[S]) ID() uint32 {
	return InstanceID(i.comp.id, i.key)
}

func (*Instance[S]) suspends() {}

// Render implements View. The instance is written as a single opaque node:
// its body is reconciled against the instance's own tree, so the page tree
// only records whether the instance as a whole changed.
func (i *Instance[S]) Render(c *Context, r *Renderer) error {
	comp := i.comp
	id := i.ID()
	if !c.claim(id, comp.id) {
		return fmt.Errorf("%w: %s with key %q", ErrDuplicateComponent, comp.id, i.key)
	}

	state, prev := i.restore(c, id)
	if ev := c.currentEvent(); ev != nil && (ev.Target == 0 || ev.Target == id) {
		if fn, ok := comp.actions[ev.ID]; ok {
			if ev.Target == id {
				c.consumeEvent(ev)
			}
			res := fn(c.Context(), state, ev.Payload)
			if err := res.GetErr(); err != nil {
				return err
			}
			res.apply(r.Header(), true)
			state = res.next(state)
		}
	}

	out, err := comp.renderBody(c, r, id, state, prev)
	if err != nil {
		return err
	}

	island := ""
	if out.Changed {
		pc, err := c.Codec().Encode(state, out.HashTree)
		if err != nil {
			return err
		}
		data, err := json.Marshal(pc)
		if err != nil {
			return serializeError("component island", err)
		}
		island = `<script type="application/json">` + string(data) + `</script>`
	}

	html := `<` + ComponentTag + ` id="` + strconv.FormatUint(uint64(id), 10) +
		`" data-id="` + templ.EscapeString(comp.id.String()) + `">` +
		out.HTML + island +
		`</` + ComponentTag + `>`
	r.leaf(html, out.Root)
	r.merge(out.Header, out.Styles)
	return nil
}

// restore returns the state to render with and the tree to reconcile
// against. A missing or undecodable previous state mounts fresh.
func (i *Instance[S]) restore(c *Context, id uint32) (S, hashtree.Tree) {
	prev, ok := c.takePrevious(id)
	if !ok {
		return i.initial, nil
	}
	var state S
	tree, err := c.Codec().Decode(prev, &state)
	if err != nil {
		c.Logger().Debug("hxview: mounting component fresh",
			"component", i.comp.id.String(),
			"instance", id,
			"error", err,
		)
		return i.initial, nil
	}
	if i.comp.next != nil {
		state = i.comp.next(state)
	}
	return state, tree
}

// renderBody renders the view for state into a pooled renderer and
// reconciles it against prev. The state's JSON is folded into the root
// hash, so a state change always changes the root even when the HTML does
// not.
//
// Hydration and the view function run on their own goroutine while the
// body renderer is acquired.
func (c *Component[S]) renderBody(hc *Context, parent *Renderer, id uint32, state S, prev hashtree.Tree) (out *Output, err error) {
	start := time.Now()
	ctx, span := telemetry.Start(hc.Context(), "hxview.component",
		attribute.String("hxview.component", c.id.String()),
		attribute.Int64("hxview.instance", int64(id)),
	)
	defer func() {
		telemetry.End(span, err)
		if out != nil {
			hc.req.metrics.ObserveComponent(c.id.String(), out.Changed)
		}
		hc.req.metrics.ObserveRender(telemetry.KindComponent, err, time.Since(start), suppressedOf(out))
	}()

	// Marshal before the view goroutine starts: the hydrater gets a shallow
	// copy, so maps and slices in S are shared with it.
	stateJSON, jsonErr := json.Marshal(state)
	if jsonErr != nil {
		return nil, serializeError("component state", jsonErr)
	}

	var (
		wg      conc.WaitGroup
		view    View
		viewErr error
	)
	wg.Go(func() {
		shown := state
		if c.hydrater != nil {
			if err := c.hydrater.Hydrate(ctx, &shown); err != nil {
				viewErr = fmt.Errorf("%w: %s: %w", ErrHydrationFailed, c.id, err)
				return
			}
		}
		view, viewErr = c.view(ctx, shown)
	})

	body := hc.acquire(parent)
	defer hc.release(body)

	if rec := wg.WaitAndRecover(); rec != nil {
		return nil, fmt.Errorf("%w: %s view panicked: %v", ErrInternal, c.id, rec.Value)
	}
	if viewErr != nil {
		return nil, viewErr
	}

	body.foldBytes([]byte(c.id.String()))
	body.foldBytes(stateJSON)
	if view != nil {
		if err := view.Render(hc.withContext(ctx), body); err != nil {
			return nil, err
		}
	}
	return body.Finalize(prev)
}

// serveUpdate answers a component update: restore the state, run the
// action, render the body against the client's tree.
func (c *Component[S]) serveUpdate(hc *Context, req *UpdateRequest, header http.Header) (*UpdateResponse, error) {
	var state S
	prev, err := hc.Codec().Decode(req.PreviousComponent, &state)
	if err != nil {
		return nil, err
	}
	if c.next != nil {
		state = c.next(state)
	}

	resp := &UpdateResponse{}
	if req.Action != "" {
		fn, ok := c.actions[req.Action]
		if !ok {
			return nil, fmt.Errorf("%w: action %q on %s", ErrNotFound, req.Action, c.id)
		}
		res := fn(hc.Context(), state, req.Payload)
		if err := res.GetErr(); err != nil {
			return nil, err
		}
		res.apply(header, false)
		resp.Flashes = res.GetFlashes()
		resp.Status = res.GetStatus()
		state = res.next(state)
	}

	if !hc.claim(req.ID, c.id) {
		return nil, fmt.Errorf("%w: %s instance %d", ErrDuplicateComponent, c.id, req.ID)
	}
	out, err := c.renderBody(hc, nil, req.ID, state, prev)
	if err != nil {
		return nil, err
	}
	if err := hc.Err(); err != nil {
		return nil, err
	}

	resp.HTML = out.HTML
	if out.Changed {
		pc, err := hc.Codec().Encode(state, out.HashTree)
		if err != nil {
			return nil, err
		}
		resp.PreviousComponent = &pc
	}
	copyHeader(header, out.Header)
	return resp, nil
}

func suppressedOf(out *Output) int {
	if out == nil {
		return 0
	}
	return out.Suppressed
}

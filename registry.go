package hxview

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pthm/hxview/lib/hashtree"
	"github.com/pthm/hxview/lib/telemetry"
)

// maxUpdateBody caps the size of update request bodies.
const maxUpdateBody = 4 << 20

// UpdateRequest is the body of a component update: the instance's previous
// state and tree, the action payload, and the previous state of component
// instances nested inside it.
type UpdateRequest struct {
	PreviousComponent

	ID          uint32                       `json:"id"`
	Payload     Payload                      `json:"payload,omitempty"`
	Descendants map[uint32]PreviousComponent `json:"descendants,omitempty"`

	// Action is taken from the route, not the body.
	Action string `json:"-"`
}

// UpdateResponse answers a component update. The state and tree are only
// present when the instance changed; otherwise the client keeps its own.
type UpdateResponse struct {
	*PreviousComponent

	HTML    string  `json:"html"`
	Flashes []Flash `json:"flashes,omitempty"`

	// Status overrides 200 when an action asked for another code.
	Status int `json:"-"`
}

// Registry serves component updates.
//
// Each registered component gets one route per action,
// {method} /{module.Name}/{action}, plus POST /{module.Name} which
// re-renders without an action. Mount the handler under a prefix:
//
//	reg := hxview.NewRegistry(hxview.WithStateCodec(codec))
//	reg.Add(counter.Counter, todo.List)
//	router.Mount("/_c", reg.Handler())
type Registry struct {
	mu         sync.RWMutex
	router     chi.Router
	components map[string]Registrable
	opts       []Option
	logger     *slog.Logger
	metrics    *telemetry.Metrics

	// OnError is called when an update fails.
	// Customize this to handle errors appropriately for your application.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// NewRegistry creates a component registry. opts apply to the Context of
// every update.
func NewRegistry(opts ...Option) *Registry {
	cfg := newRequest(opts)
	reg := &Registry{
		router:     chi.NewRouter(),
		components: make(map[string]Registrable),
		opts:       opts,
		logger:     cfg.logger,
		metrics:    cfg.metrics,
	}
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(reg.logger, w, r, err)
	}
	reg.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		reg.OnError(w, r, fmt.Errorf("%w: %s", ErrNotFound, r.URL.Path))
	})
	reg.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		reg.OnError(w, r, NewError(http.StatusMethodNotAllowed, ""))
	})
	return reg
}

// Add registers components with the registry.
// Panics if two components share an id.
func (reg *Registry) Add(components ...Registrable) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, comp := range components {
		reg.register(comp)
	}
}

func (reg *Registry) register(comp Registrable) {
	name := comp.ID().String()
	if _, exists := reg.components[name]; exists {
		panic(fmt.Sprintf("hxview: component %q registered twice", name))
	}
	reg.components[name] = comp

	reg.router.Post("/"+name, reg.serve(comp, ""))
	for _, action := range actionsOf(comp) {
		method, _ := comp.method(action)
		reg.router.MethodFunc(method, "/"+name+"/"+action, reg.serve(comp, action))
	}
}

// actionsOf lists the actions of comp when it exposes them.
func actionsOf(comp Registrable) []string {
	if a, ok := comp.(interface{ Actions() []string }); ok {
		return a.Actions()
	}
	return nil
}

// Lookup returns a registered component by id.
func (reg *Registry) Lookup(id ComponentID) (Registrable, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	comp, ok := reg.components[id.String()]
	return comp, ok
}

// Handler returns the HTTP handler for component routes.
func (reg *Registry) Handler() http.Handler {
	return requireHTMX(reg.router, func(w http.ResponseWriter, r *http.Request, err error) {
		reg.OnError(w, r, err)
	})
}

// requireHTMX is the CSRF guard: mutating methods must carry the
// HX-Request header, which cross-origin forms cannot set.
func requireHTMX(next http.Handler, onError func(http.ResponseWriter, *http.Request, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead && !IsHTMX(r) {
			onError(w, r, NewError(http.StatusForbidden, "htmx request required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (reg *Registry) serve(comp Registrable, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := telemetry.Start(r.Context(), "hxview.update",
			attribute.String("hxview.component", comp.ID().String()),
			attribute.String("hxview.action", action),
		)

		var resp *UpdateResponse
		req, err := decodeUpdateRequest(w, r)
		if err == nil {
			req.Action = action
			opts := append([]Option{WithUpdate(), WithDescendants(req.Descendants)}, reg.opts...)
			resp, err = comp.serveUpdate(NewContext(ctx, opts...), req, w.Header())
		}

		telemetry.End(span, err)
		reg.metrics.ObserveRender(telemetry.KindUpdate, err, time.Since(start), 0)
		if err != nil {
			reg.OnError(w, r, err)
			return
		}
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		writeJSON(w, status, resp)
	}
}

// decodeUpdateRequest reads a JSON body, or a urlencoded form whose state,
// sealed, hashTree and id fields carry the previous state and whose other
// fields become the payload.
func decodeUpdateRequest(w http.ResponseWriter, r *http.Request) (*UpdateRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBody)
	req := &UpdateRequest{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, deserializeError("update request", err)
		}
		req.HashTree = usableTree(req.HashTree)
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, deserializeError("update form", err)
	}
	form := r.PostForm
	if v := form.Get("state"); v != "" {
		req.State = json.RawMessage(v)
	}
	req.Sealed = form.Get("sealed")
	if v := form.Get("hashTree"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.HashTree); err != nil {
			return nil, deserializeError("hash tree", err)
		}
	}
	if v := form.Get("id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, deserializeError("instance id", err)
		}
		req.ID = uint32(id)
	}
	for _, k := range []string{"state", "sealed", "hashTree", "id"} {
		form.Del(k)
	}
	payload, err := FormPayload(form)
	if err != nil {
		return nil, err
	}
	req.Payload = payload
	req.HashTree = usableTree(req.HashTree)
	return req, nil
}

// writeError logs err and writes it as a plain text response. Client
// errors are logged at debug, everything else at error.
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("hxview: request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Debug("hxview: request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	reason := http.StatusText(status)
	var he *Error
	if errors.As(err, &he) && he.Reason != "" {
		reason = he.Reason
	}
	http.Error(w, reason, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// usableTree returns t, or nil when t is truncated or out of order. A
// client tree that cannot be trusted matches nothing, so the render is sent
// in full.
func usableTree(t hashtree.Tree) hashtree.Tree {
	if len(t) == 0 || t.Validate() != nil {
		return nil
	}
	return t
}

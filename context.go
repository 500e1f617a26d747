package hxview

import (
	"context"
	"log/slog"
	"mime/multipart"
	"sync"

	"github.com/pthm/hxview/lib/hashtree"
	"github.com/pthm/hxview/lib/telemetry"
)

// Context carries the per-request state every view can reach: the renderer
// pool, the inbound event, the previous render's tree and component states,
// and a deferred error.
//
// A Context belongs to one request. Fragments and components render on
// several goroutines at once, so all mutable state is guarded.
type Context struct {
	ctx context.Context
	req *request
}

type request struct {
	mu   sync.Mutex
	free []*Renderer
	err  error

	update   bool
	prevTree hashtree.Tree
	event    *EventData
	mp       *multipart.Reader
	previous map[uint32]PreviousComponent
	mounted  map[uint32]ComponentID

	htmx     HTMXRequest
	hashless map[string]struct{}
	codec    StateCodec
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Context.
type Option func(*request)

// WithUpdate marks the render as an answer to an update request.
func WithUpdate() Option {
	return func(r *request) {
		r.update = true
	}
}

// WithPrevious sets the tree of the previous render of the same page.
func WithPrevious(tree hashtree.Tree) Option {
	return func(r *request) {
		r.prevTree = tree
	}
}

// WithDescendants supplies the previous state of component instances, keyed
// by instance id. Each entry is consumed by the first instance that claims it.
func WithDescendants(prev map[uint32]PreviousComponent) Option {
	return func(r *request) {
		for id, p := range prev {
			r.previous[id] = p
		}
	}
}

// WithEvent sets the inbound event.
func WithEvent(ev EventData) Option {
	return func(r *request) {
		r.event = &ev
	}
}

// WithMultipart exposes the remainder of a multipart request body.
func WithMultipart(mr *multipart.Reader) Option {
	return func(r *request) {
		r.mp = mr
	}
}

// WithHTMX records the htmx headers of the request.
func WithHTMX(h HTMXRequest) Option {
	return func(r *request) {
		r.htmx = h
	}
}

// WithHashlessTags replaces the default hashless tag list.
func WithHashlessTags(tags ...string) Option {
	return func(r *request) {
		r.hashless = tagSet(tags)
	}
}

// WithStateCodec sets how component state is shipped to the client.
func WithStateCodec(codec StateCodec) Option {
	return func(r *request) {
		if codec != nil {
			r.codec = codec
		}
	}
}

// WithLogger sets the logger used for degraded paths such as a component
// state that fails to restore.
func WithLogger(l *slog.Logger) Option {
	return func(r *request) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records component renders in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *request) {
		r.metrics = m
	}
}

// NewContext creates the rendering context for one request.
func NewContext(ctx context.Context, opts ...Option) *Context {
	return &Context{ctx: ctx, req: newRequest(opts)}
}

func newRequest(opts []Option) *request {
	req := &request{
		previous: make(map[uint32]PreviousComponent),
		mounted:  make(map[uint32]ComponentID),
		hashless: defaultHashless,
		codec:    JSONCodec{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// HTMX returns the htmx headers of the request being rendered.
func (c *Context) HTMX() HTMXRequest {
	return c.req.htmx
}

// Context returns the request's context.Context.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Logger returns the request logger.
func (c *Context) Logger() *slog.Logger {
	return c.req.logger
}

// IsUpdate reports whether this is an update render.
func (c *Context) IsUpdate() bool {
	return c.req.update
}

// Codec returns the state codec.
func (c *Context) Codec() StateCodec {
	return c.req.codec
}

func (c *Context) withContext(ctx context.Context) *Context {
	return &Context{ctx: ctx, req: c.req}
}

// acquire takes a renderer from the pool, configured for this request. When
// parent is set the new renderer inherits its head state so nodes spliced
// back under a head element stay hashless.
func (c *Context) acquire(parent *Renderer) *Renderer {
	c.req.mu.Lock()
	var r *Renderer
	if n := len(c.req.free); n > 0 {
		r = c.req.free[n-1]
		c.req.free[n-1] = nil
		c.req.free = c.req.free[:n-1]
	}
	c.req.mu.Unlock()

	if r == nil {
		r = NewRenderer()
	}
	r.update = c.req.update
	r.hashless = c.req.hashless
	if parent != nil {
		r.headDepth = parent.headDepth
	}
	return r
}

// release clears r and returns it to the pool.
func (c *Context) release(r *Renderer) {
	if r == nil {
		return
	}
	r.Reset()
	c.req.mu.Lock()
	c.req.free = append(c.req.free, r)
	c.req.mu.Unlock()
}

// fail stores err in the deferred error cell. The first error wins.
func (c *Context) fail(err error) {
	if err == nil {
		return
	}
	c.req.mu.Lock()
	if c.req.err == nil {
		c.req.err = err
	}
	c.req.mu.Unlock()
}

// Err returns the deferred error, if any helper recorded one.
func (c *Context) Err() error {
	c.req.mu.Lock()
	defer c.req.mu.Unlock()
	return c.req.err
}

// TakeMultipart returns the multipart stream of the request. Only the first
// call receives it.
func (c *Context) TakeMultipart() *multipart.Reader {
	c.req.mu.Lock()
	defer c.req.mu.Unlock()
	mr := c.req.mp
	c.req.mp = nil
	return mr
}

// takePrevious removes and returns the previous state of an instance.
func (c *Context) takePrevious(id uint32) (PreviousComponent, bool) {
	c.req.mu.Lock()
	defer c.req.mu.Unlock()
	p, ok := c.req.previous[id]
	if ok {
		delete(c.req.previous, id)
	}
	return p, ok
}

// claim registers an instance id for this render and reports false if it
// was already taken.
func (c *Context) claim(id uint32, cid ComponentID) bool {
	c.req.mu.Lock()
	defer c.req.mu.Unlock()
	if _, ok := c.req.mounted[id]; ok {
		return false
	}
	c.req.mounted[id] = cid
	return true
}

// Render renders v with a pooled renderer and reconciles it against the
// previous tree. The deferred error cell is checked once rendering is done.
func (c *Context) Render(v View) (*Output, error) {
	r := c.acquire(nil)
	defer c.release(r)

	if err := v.Render(c, r); err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return r.Finalize(c.req.prevTree)
}

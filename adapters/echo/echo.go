// Package hxviewecho provides Echo framework integration for hxview.
//
// Mount the component registry onto an Echo instance or group:
//
//	e := echo.New()
//	reg := hxviewecho.Mount(e)
//	reg.Add(counter.Counter)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	reg := hxviewecho.MountGroup(g)
//	reg.Add(counter.Counter)
//
// Pages answer full renders on GET and update renders on POST and PUT:
//
//	hxviewecho.Page(e, "/", func(c *hxview.Context) (hxview.View, error) {
//	    return hxview.Document(head(), body()), nil
//	})
package hxviewecho

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pthm/hxview"
)

// DefaultPath is where Mount and MountGroup serve component routes.
const DefaultPath = "/_c/"

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key       []byte
	sensitive bool
	path      string
	render    []hxview.Option
}

// WithKey seals component state with key: signed, or encrypted when
// sensitive is true. Without a key state travels as plain JSON.
func WithKey(key []byte, sensitive bool) Option {
	return func(o *options) {
		o.key = key
		o.sensitive = sensitive
	}
}

// WithPath sets the URL path prefix for component routes.
// Defaults to "/_c/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = "/" + strings.Trim(path, "/") + "/"
	}
}

// WithRenderOptions passes options to the Context of every update.
func WithRenderOptions(opts ...hxview.Option) Option {
	return func(o *options) {
		o.render = append(o.render, opts...)
	}
}

// Mount creates a registry and mounts its handler on an Echo instance.
//
//	e := echo.New()
//	reg := hxviewecho.Mount(e)
//
//	// With options:
//	reg := hxviewecho.Mount(e, hxviewecho.WithKey(key, false))
//
// Panics if the key cannot be used.
func Mount(e *echo.Echo, opts ...Option) *hxview.Registry {
	reg, path := newRegistry(opts)
	e.Any(path+"*", wildcard(reg.Handler()))
	return reg
}

// MountGroup creates a registry and mounts its handler on an Echo group,
// so component routes share the group's middleware (auth, logging, etc.).
//
//	g := e.Group("/app", authMiddleware)
//	reg := hxviewecho.MountGroup(g)
func MountGroup(g *echo.Group, opts ...Option) *hxview.Registry {
	reg, path := newRegistry(opts)
	g.Any(path+"*", wildcard(reg.Handler()))
	return reg
}

func newRegistry(opts []Option) (*hxview.Registry, string) {
	o := &options{path: DefaultPath}
	for _, opt := range opts {
		opt(o)
	}

	render := o.render
	if len(o.key) > 0 {
		codec, err := hxview.NewSealedCodec(o.key, o.sensitive)
		if err != nil {
			panic(fmt.Sprintf("hxviewecho: %v", err))
		}
		render = append(render, hxview.WithStateCodec(codec))
	}
	return hxview.NewRegistry(render...), o.path
}

// wildcard serves h with the request path rewritten to the part matched by
// the route's trailing *, which is where registry routes start.
func wildcard(h http.Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		u := *r.URL
		u.Path = "/" + c.Param("*")
		u.RawPath = ""

		r2 := new(http.Request)
		*r2 = *r
		r2.URL = &u
		h.ServeHTTP(c.Response(), r2)
		return nil
	}
}

// Page serves fn at path for GET, HEAD, POST and PUT.
func Page(e *echo.Echo, path string, fn hxview.PageFunc, opts ...hxview.Option) *hxview.PageHandler {
	p := hxview.Page(fn, opts...)
	e.Match([]string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut}, path, echo.WrapHandler(p))
	return p
}

// Render renders v in full and writes it to the Echo response, with the
// headers the view set.
//
//	func handler(c echo.Context) error {
//	    return hxviewecho.Render(c, view)
//	}
func Render(c echo.Context, v hxview.View, opts ...hxview.Option) error {
	out, err := hxview.NewContext(c.Request().Context(), opts...).Render(v)
	if err != nil {
		return err
	}
	header := c.Response().Header()
	for k, vs := range out.Header {
		for _, val := range vs {
			header.Add(k, val)
		}
	}
	return c.HTML(http.StatusOK, out.HTML)
}

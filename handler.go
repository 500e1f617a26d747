package hxview

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pthm/hxview/lib/hashtree"
	"github.com/pthm/hxview/lib/telemetry"
)

// TreeAttr marks the script element carrying a page's hash tree.
const TreeAttr = "data-hx-tree"

// maxPartSize caps each metadata part of a multipart update.
const maxPartSize = 1 << 20

// PageFunc builds the view of a page. It runs once per request.
type PageFunc func(c *Context) (View, error)

// PageUpdate is the body of a page update.
type PageUpdate struct {
	EventID     string                       `json:"eventId,omitempty"`
	Target      uint32                       `json:"target,omitempty"`
	Payload     Payload                      `json:"payload,omitempty"`
	HashTree    hashtree.Tree                `json:"hashTree,omitempty"`
	Descendants map[uint32]PreviousComponent `json:"descendants,omitempty"`
}

// PageResult answers a page update.
type PageResult struct {
	HTML     string        `json:"html"`
	HashTree hashtree.Tree `json:"hashTree"`
}

// PageHandler serves one page: GET renders it in full, POST and PUT render
// an update against the tree the client sends back.
type PageHandler struct {
	fn      PageFunc
	opts    []Option
	logger  *slog.Logger
	metrics *telemetry.Metrics

	// OnError is called when a render fails.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// Page creates a handler for fn. opts apply to the Context of every
// request.
//
//	router.Handle("/", hxview.Page(func(c *hxview.Context) (hxview.View, error) {
//	    return hxview.Document(head(), body()), nil
//	}))
func Page(fn PageFunc, opts ...Option) *PageHandler {
	cfg := newRequest(opts)
	p := &PageHandler{
		fn:      fn,
		opts:    opts,
		logger:  cfg.logger,
		metrics: cfg.metrics,
	}
	p.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(p.logger, w, r, err)
	}
	return p
}

// Mount registers the page on router at pattern for every method it
// answers.
func (p *PageHandler) Mount(router chi.Router, pattern string) {
	router.Get(pattern, p.ServeHTTP)
	router.Head(pattern, p.ServeHTTP)
	router.Post(pattern, p.ServeHTTP)
	router.Put(pattern, p.ServeHTTP)
}

func (p *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		p.serveFull(w, r)
	case http.MethodPost, http.MethodPut:
		if !IsHTMX(r) {
			p.OnError(w, r, NewError(http.StatusForbidden, "htmx request required"))
			return
		}
		p.serveUpdate(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST, PUT")
		p.OnError(w, r, NewError(http.StatusMethodNotAllowed, ""))
	}
}

func (p *PageHandler) serveFull(w http.ResponseWriter, r *http.Request) {
	out, err := p.render(r, telemetry.KindPage, p.opts)
	if err != nil {
		p.OnError(w, r, err)
		return
	}
	html, err := withTreeIsland(out.HTML, out.HashTree)
	if err != nil {
		p.OnError(w, r, err)
		return
	}
	copyHeader(w.Header(), out.Header)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, html)
	}
}

func (p *PageHandler) serveUpdate(w http.ResponseWriter, r *http.Request) {
	upd, mr, err := decodePageUpdate(w, r)
	if err != nil {
		p.OnError(w, r, err)
		return
	}

	opts := []Option{WithUpdate(), WithPrevious(upd.HashTree), WithDescendants(upd.Descendants)}
	if upd.EventID != "" {
		opts = append(opts, WithEvent(EventData{ID: upd.EventID, Target: upd.Target, Payload: upd.Payload}))
	}
	if mr != nil {
		opts = append(opts, WithMultipart(mr))
	}
	out, err := p.render(r, telemetry.KindUpdate, append(opts, p.opts...))
	if err != nil {
		p.OnError(w, r, err)
		return
	}
	copyHeader(w.Header(), out.Header)
	writeJSON(w, http.StatusOK, PageResult{HTML: out.HTML, HashTree: out.HashTree})
}

func (p *PageHandler) render(r *http.Request, kind string, opts []Option) (out *Output, err error) {
	start := time.Now()
	ctx, span := telemetry.Start(r.Context(), "hxview."+kind,
		attribute.String("hxview.kind", kind),
		attribute.String("http.route", r.URL.Path),
	)
	defer func() {
		if out != nil {
			span.SetAttributes(attribute.Int("hxview.suppressed", out.Suppressed))
		}
		telemetry.End(span, err)
		p.metrics.ObserveRender(kind, err, time.Since(start), suppressedOf(out))
	}()

	c := NewContext(ctx, append([]Option{WithHTMX(ParseHTMX(r))}, opts...)...)
	v, err := p.fn(c)
	if err != nil {
		return nil, err
	}
	return c.Render(v)
}

// withTreeIsland places the tree in a script element right before the
// closing body tag, or at the end when there is none.
func withTreeIsland(html string, tree hashtree.Tree) (string, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return "", serializeError("hash tree", err)
	}
	island := `<script type="application/json" ` + TreeAttr + `>` + string(data) + `</script>`
	if i := strings.LastIndex(html, "</body>"); i >= 0 {
		return html[:i] + island + html[i:], nil
	}
	return html + island, nil
}

// decodePageUpdate reads a page update from a JSON, multipart or
// urlencoded body. For multipart bodies the returned reader is positioned
// after the state part.
func decodePageUpdate(w http.ResponseWriter, r *http.Request) (*PageUpdate, *multipart.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return decodeMultipartUpdate(r)
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBody)
		upd, err := decodeFormUpdate(r)
		return upd, nil, err
	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBody)
		upd := &PageUpdate{}
		if err := json.NewDecoder(r.Body).Decode(upd); err != nil {
			return nil, nil, deserializeError("page update", err)
		}
		upd.HashTree = usableTree(upd.HashTree)
		return upd, nil, nil
	}
}

// pageState is the state part of a multipart update and the state field
// of a form update.
type pageState struct {
	HashTree    hashtree.Tree                `json:"hashTree"`
	Descendants map[uint32]PreviousComponent `json:"descendants"`
}

func decodeFormUpdate(r *http.Request) (*PageUpdate, error) {
	if err := r.ParseForm(); err != nil {
		return nil, deserializeError("update form", err)
	}
	form := r.PostForm
	upd := &PageUpdate{EventID: form.Get("eventId")}
	if v := form.Get("target"); v != "" {
		t, err := parseTarget(v)
		if err != nil {
			return nil, err
		}
		upd.Target = t
	}
	if v := form.Get("state"); v != "" {
		var st pageState
		if err := json.Unmarshal([]byte(v), &st); err != nil {
			return nil, deserializeError("page state", err)
		}
		upd.HashTree, upd.Descendants = st.HashTree, st.Descendants
	}
	for _, k := range []string{"eventId", "target", "state"} {
		form.Del(k)
	}
	payload, err := FormPayload(form)
	if err != nil {
		return nil, err
	}
	upd.Payload = payload
	upd.HashTree = usableTree(upd.HashTree)
	return upd, nil
}

func decodeMultipartUpdate(r *http.Request) (*PageUpdate, *multipart.Reader, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, deserializeError("multipart update", err)
	}
	upd := &PageUpdate{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			upd.HashTree = usableTree(upd.HashTree)
			return upd, nil, nil
		}
		if err != nil {
			return nil, nil, deserializeError("multipart update", err)
		}
		data, err := io.ReadAll(io.LimitReader(part, maxPartSize))
		if err != nil {
			return nil, nil, deserializeError("multipart part "+part.FormName(), err)
		}

		switch part.FormName() {
		case "event_id":
			upd.EventID = string(data)
		case "target":
			if upd.Target, err = parseTarget(string(data)); err != nil {
				return nil, nil, err
			}
		case "payload":
			upd.Payload = JSONPayload(data)
		case "state":
			var st pageState
			if err := json.Unmarshal(data, &st); err != nil {
				return nil, nil, deserializeError("page state", err)
			}
			upd.HashTree, upd.Descendants = usableTree(st.HashTree), st.Descendants
			return upd, mr, nil
		default:
			return nil, nil, fmt.Errorf("%w: unexpected multipart part %q before state", ErrDeserialize, part.FormName())
		}
	}
}

func parseTarget(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, deserializeError("event target", err)
	}
	return uint32(v), nil
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

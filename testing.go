package hxview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/pthm/hxview/lib/hashtree"
)

// TestResult holds the result of a render or request for testing.
//
// Provides convenience methods for asserting on HTML content, headers,
// status codes, events, flashes, and redirects.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	HashTree        hashtree.Tree
	TriggeredEvents []string
	Flashes         []Flash
	RedirectURL     string

	// Previous is the component state returned by a component update, nil
	// when the instance did not change.
	Previous *PreviousComponent
}

// TestRender renders a view and returns testable output.
//
// Use this for pure unit tests of rendering logic. opts configure the
// Context, so an update render against a known tree is:
//
//	first, _ := hxview.TestRender(page)
//	second, _ := hxview.TestRender(page, hxview.WithUpdate(), hxview.WithPrevious(first.HashTree))
func TestRender(v View, opts ...Option) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), v, opts...)
}

// TestRenderWithContext renders a view with a custom context.
//
// Use this when testing views that read values from context
// (user authentication, request-scoped data):
//
//	ctx := context.WithValue(context.Background(), userKey, testUser)
//	result, err := hxview.TestRenderWithContext(ctx, view)
func TestRenderWithContext(ctx context.Context, v View, opts ...Option) (*TestResult, error) {
	out, err := NewContext(ctx, opts...).Render(v)
	if err != nil {
		return nil, err
	}
	return resultFromHeader(&TestResult{
		HTML:       out.HTML,
		StatusCode: http.StatusOK,
		Headers:    out.Header,
		HashTree:   out.HashTree,
	}), nil
}

// TestAction runs one action of comp against state through a Registry,
// exercising decoding, the action, rendering and response encoding. An
// empty action re-renders without one.
//
//	result, err := hxview.TestAction(counter.Counter, counter.State{Count: 1}, "increment", nil)
//	if !result.IsOK() {
//	    t.Fatal("expected success")
//	}
func TestAction[S any](comp *Component[S], state S, action string, payload any, opts ...Option) (*TestResult, error) {
	pc, err := JSONCodec{}.Encode(state, nil)
	if err != nil {
		return nil, err
	}
	req := UpdateRequest{PreviousComponent: pc, ID: InstanceID(comp.id, "")}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		req.Payload = JSONPayload(raw)
	}

	reg := NewRegistry(opts...)
	reg.Add(comp)

	method := http.MethodPost
	if m, ok := comp.method(action); ok {
		method = m
	}
	return NewTestRequest(method, ActionPath("", comp.id, action)).
		WithJSON(req).
		Execute(reg.Handler())
}

// TestUpdate sends a page update to page.
//
//	first, _ := hxview.TestGet(page, "/")
//	result, err := hxview.TestUpdate(page, hxview.PageUpdate{EventID: "increment", HashTree: first.HashTree})
func TestUpdate(page http.Handler, upd PageUpdate) (*TestResult, error) {
	return NewTestRequest(http.MethodPut, "/").WithJSON(upd).Execute(page)
}

// TestGet simulates a GET request against h.
func TestGet(h http.Handler, url string) (*TestResult, error) {
	return NewTestRequest(http.MethodGet, url).Execute(h)
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HTMLContainsAny checks if the HTML contains any of the given substrings.
func (r *TestResult) HTMLContainsAny(substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(r.HTML, s) {
			return true
		}
	}
	return false
}

// HasEvent checks if an event was triggered, through Hx-Trigger or
// FireEvent.
func (r *TestResult) HasEvent(event string) bool {
	for _, e := range r.TriggeredEvents {
		if e == event {
			return true
		}
	}
	return false
}

// HasFlash checks if a flash message was set with the given level and message.
func (r *TestResult) HasFlash(level, message string) bool {
	for _, f := range r.Flashes {
		if f.Level == level && f.Message == message {
			return true
		}
	}
	return false
}

// HasFlashLevel checks if any flash message was set with the given level.
func (r *TestResult) HasFlashLevel(level string) bool {
	for _, f := range r.Flashes {
		if f.Level == level {
			return true
		}
	}
	return false
}

// WasRedirected checks if the response was a redirect.
func (r *TestResult) WasRedirected() bool {
	return r.RedirectURL != ""
}

// RedirectedTo checks if the response was redirected to a specific URL.
func (r *TestResult) RedirectedTo(url string) bool {
	return r.RedirectURL == url
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// HasHeader checks if a header is set with the given value.
func (r *TestResult) HasHeader(key, value string) bool {
	return r.Headers.Get(key) == value
}

// GetHeader returns the value of a header.
func (r *TestResult) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// IsUnchanged reports whether the whole output is the unchanged
// placeholder.
func (r *TestResult) IsUnchanged() bool {
	return r.HTML == Unchanged
}

// DecodeState decodes the JSON state of a component update result.
func DecodeState[S any](r *TestResult) (S, error) {
	var s S
	if r.Previous == nil {
		return s, fmt.Errorf("%w: no state in result", ErrNotFound)
	}
	_, err := JSONCodec{}.Decode(*r.Previous, &s)
	return s, err
}

// parseTriggerHeader parses the HX-Trigger header value into event names.
// The header can be a simple event name or JSON.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}

	// JSON form: event names are the top-level keys
	if strings.HasPrefix(trigger, "{") {
		var m map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trigger), &m); err != nil {
			return nil
		}
		events := make([]string, 0, len(m))
		for k := range m {
			events = append(events, k)
		}
		return events
	}

	// Simple comma-separated list
	parts := strings.Split(trigger, ",")
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			events = append(events, p)
		}
	}
	return events
}

// resultFromHeader fills the event, redirect and flash fields from headers.
func resultFromHeader(r *TestResult) *TestResult {
	for _, v := range r.Headers.Values(HeaderTrigger) {
		r.TriggeredEvents = append(r.TriggeredEvents, parseTriggerHeader(v)...)
	}
	r.TriggeredEvents = append(r.TriggeredEvents, r.Headers.Values(HeaderEvent)...)
	r.RedirectURL = r.Headers.Get(HeaderRedirect)
	for _, v := range r.Headers.Values(HeaderFlash) {
		var f Flash
		if err := json.Unmarshal([]byte(v), &f); err == nil {
			r.Flashes = append(r.Flashes, f)
		}
	}
	return r
}

// TestRequestBuilder provides a fluent interface for building test requests.
//
// Use this when you need fine-grained control over request construction:
//
//	result, err := hxview.NewTestRequest("PUT", "/").
//	    WithJSON(update).
//	    WithHeader("X-Custom", "header").
//	    WithContext(ctx).
//	    Execute(page)
type TestRequestBuilder struct {
	method      string
	url         string
	body        []byte
	contentType string
	headers     map[string]string
	ctx         context.Context
	err         error
}

// NewTestRequest creates a new test request builder. Requests carry
// HX-Request: true unless overridden with WithHeader.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:  method,
		url:     url,
		headers: map[string]string{HeaderRequest: "true"},
		ctx:     context.Background(),
	}
}

// WithJSON sets v, JSON encoded, as the body.
func (b *TestRequestBuilder) WithJSON(v any) *TestRequestBuilder {
	b.body, b.err = json.Marshal(v)
	b.contentType = "application/json"
	return b
}

// WithBody sets a raw body and its content type.
func (b *TestRequestBuilder) WithBody(contentType string, body []byte) *TestRequestBuilder {
	b.body = body
	b.contentType = contentType
	return b
}

// WithHeader adds a header to the request.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	b.headers[key] = value
	return b
}

// WithContext sets the context for the request.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute sends the request to h. Successful JSON responses of component
// and page updates are decoded into the result.
func (b *TestRequestBuilder) Execute(h http.Handler) (*TestResult, error) {
	if b.err != nil {
		return nil, b.err
	}

	req := httptest.NewRequest(b.method, b.url, bytes.NewReader(b.body)).WithContext(b.ctx)
	if b.contentType != "" {
		req.Header.Set("Content-Type", b.contentType)
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	result := &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}
	if rec.Code >= 200 && rec.Code < 300 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		var body struct {
			PreviousComponent
			HTML    string  `json:"html"`
			Flashes []Flash `json:"flashes"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			return nil, err
		}
		result.HTML = body.HTML
		result.HashTree = body.HashTree
		result.Flashes = body.Flashes
		if len(body.State) > 0 || body.Sealed != "" {
			pc := body.PreviousComponent
			result.Previous = &pc
		}
	}
	return resultFromHeader(result), nil
}

// MockHydrater is a Hydrater that records the state it was handed.
//
// Useful for injecting test data without needing real dependencies like
// databases or external services:
//
//	mock := hxview.NewMockHydrater(func(ctx context.Context, s *State) error {
//	    s.Repo = testRepo
//	    return nil
//	})
//	comp.Hydrate(mock)
type MockHydrater[S any] struct {
	HydrateFunc func(ctx context.Context, state *S) error

	mu    sync.Mutex
	last  *S
	calls int
}

// NewMockHydrater creates a MockHydrater around fn. A nil fn hydrates
// nothing.
func NewMockHydrater[S any](fn func(ctx context.Context, state *S) error) *MockHydrater[S] {
	return &MockHydrater[S]{HydrateFunc: fn}
}

// Hydrate implements Hydrater.
func (m *MockHydrater[S]) Hydrate(ctx context.Context, state *S) error {
	m.mu.Lock()
	m.last = state
	m.calls++
	m.mu.Unlock()
	if m.HydrateFunc == nil {
		return nil
	}
	return m.HydrateFunc(ctx, state)
}

// LastHydrated returns the state from the last Hydrate call.
func (m *MockHydrater[S]) LastHydrated() *S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Calls returns how many times Hydrate ran.
func (m *MockHydrater[S]) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

package hxview

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type greetingState struct {
	Name string `json:"name"`
}

func greetingView(_ context.Context, s greetingState) (View, error) {
	if s.Name == "" {
		return nil, errors.New("name required")
	}
	return El("div", Textf("Hello, %s!", s.Name)), nil
}

func TestTestRender_Success(t *testing.T) {
	result, err := TestRender(El("div", Text("Hello, World!")))
	if err != nil {
		t.Fatalf("TestRender() error = %v", err)
	}

	if !result.HTMLContains("Hello, World!") {
		t.Errorf("expected HTML to contain 'Hello, World!', got: %s", result.HTML)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", result.StatusCode, http.StatusOK)
	}
	if err := result.HashTree.Validate(); err != nil {
		t.Errorf("HashTree.Validate() error = %v", err)
	}
}

func TestTestRender_ViewError(t *testing.T) {
	comp := New("test", "Greeting", greetingView)

	_, err := TestRender(comp.Mount("", greetingState{}))
	if err == nil {
		t.Fatal("expected error from view")
	}
	if err.Error() != "name required" {
		t.Errorf("error = %v, want 'name required'", err)
	}
}

func TestTestRender_CollectsSignals(t *testing.T) {
	result, err := TestRender(Fragment{
		FireEvent("saved", nil),
		RedirectTo("/done"),
	})
	if err != nil {
		t.Fatalf("TestRender() error = %v", err)
	}

	if !result.HasEvent("saved") {
		t.Errorf("TriggeredEvents = %v, want saved", result.TriggeredEvents)
	}
	if !result.RedirectedTo("/done") {
		t.Errorf("RedirectURL = %q, want /done", result.RedirectURL)
	}
}

func TestTestRenderWithContext(t *testing.T) {
	type ctxKey string
	key := ctxKey("user")
	ctx := context.WithValue(context.Background(), key, "alice")

	view := ViewFunc(func(c *Context, r *Renderer) error {
		r.Text(c.Context().Value(key).(string))
		return nil
	})

	result, err := TestRenderWithContext(ctx, view)
	if err != nil {
		t.Fatalf("TestRenderWithContext() error = %v", err)
	}
	if result.HTML != "alice" {
		t.Errorf("HTML = %q, want %q", result.HTML, "alice")
	}
}

func TestTestAction_Rerender(t *testing.T) {
	comp := New("test", "Greeting", greetingView)

	result, err := TestAction(comp, greetingState{Name: "Bob"}, "", nil)
	if err != nil {
		t.Fatalf("TestAction() error = %v", err)
	}
	if !result.IsOK() {
		t.Fatalf("StatusCode = %d, body %q", result.StatusCode, result.HTML)
	}
	if !result.HTMLContains("Hello, Bob!") {
		t.Errorf("HTML = %q", result.HTML)
	}

	state, err := DecodeState[greetingState](result)
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}
	if state.Name != "Bob" {
		t.Errorf("state.Name = %q, want Bob", state.Name)
	}
}

func TestTestAction_UsesMethodOverride(t *testing.T) {
	comp := New("test", "Greeting", greetingView)
	comp.Action("rename", func(_ context.Context, s greetingState, p Payload) Result[greetingState] {
		if err := p.Bind(&s); err != nil {
			return Err(s, err)
		}
		return OK(s).Trigger("renamed")
	}).Method(http.MethodPut)

	result, err := TestAction(comp, greetingState{Name: "Bob"}, "rename", map[string]string{"name": "Eve"})
	if err != nil {
		t.Fatalf("TestAction() error = %v", err)
	}
	if !result.HTMLContains("Hello, Eve!") {
		t.Errorf("HTML = %q", result.HTML)
	}
	if !result.HasEvent("renamed") {
		t.Errorf("TriggeredEvents = %v", result.TriggeredEvents)
	}
}

func TestTestAction_Error(t *testing.T) {
	comp := New("test", "Greeting", greetingView)

	result, err := TestAction(comp, greetingState{}, "", nil)
	if err != nil {
		t.Fatalf("TestAction() error = %v", err)
	}
	if !result.HasStatus(http.StatusInternalServerError) {
		t.Errorf("StatusCode = %d, want 500", result.StatusCode)
	}
}

func TestTestGet(t *testing.T) {
	page := Page(func(*Context) (View, error) {
		return Document(nil, El("p", Text("home"))), nil
	})

	result, err := TestGet(page, "/")
	if err != nil {
		t.Fatalf("TestGet() error = %v", err)
	}
	if !result.HTMLContainsAll("<!DOCTYPE html>", "home", TreeAttr) {
		t.Errorf("HTML = %q", result.HTML)
	}
}

func TestTestResult_HTMLContains(t *testing.T) {
	result := &TestResult{HTML: `<div class="container"><span>Hello World</span></div>`}

	tests := []struct {
		substr string
		want   bool
	}{
		{"Hello World", true},
		{"container", true},
		{"<span>", true},
		{"Missing", false},
		{"", true}, // empty string is always contained
	}

	for _, tt := range tests {
		t.Run(tt.substr, func(t *testing.T) {
			if got := result.HTMLContains(tt.substr); got != tt.want {
				t.Errorf("HTMLContains(%q) = %v, want %v", tt.substr, got, tt.want)
			}
		})
	}
}

func TestTestResult_HTMLContainsAll(t *testing.T) {
	result := &TestResult{HTML: `<div class="container"><span>Hello World</span></div>`}

	if !result.HTMLContainsAll("Hello", "World", "container") {
		t.Error("expected HTMLContainsAll to return true for all present substrings")
	}

	if result.HTMLContainsAll("Hello", "Missing") {
		t.Error("expected HTMLContainsAll to return false when any substring is missing")
	}
}

func TestTestResult_HTMLContainsAny(t *testing.T) {
	result := &TestResult{HTML: `<div>Hello World</div>`}

	if !result.HTMLContainsAny("Missing", "Hello", "NotHere") {
		t.Error("expected HTMLContainsAny to return true when any substring is present")
	}

	if result.HTMLContainsAny("Missing", "NotHere", "Absent") {
		t.Error("expected HTMLContainsAny to return false when no substrings are present")
	}
}

func TestTestResult_HasEvent(t *testing.T) {
	result := &TestResult{
		TriggeredEvents: []string{"item-created", "list-updated"},
	}

	if !result.HasEvent("item-created") {
		t.Error("expected HasEvent to find 'item-created'")
	}

	if result.HasEvent("created") {
		t.Error("expected HasEvent to require an exact match")
	}
}

func TestTestResult_HasFlash(t *testing.T) {
	result := &TestResult{
		Flashes: []Flash{
			{Level: "success", Message: "Item saved"},
			{Level: "error", Message: "Validation failed"},
		},
	}

	if !result.HasFlash("success", "Item saved") {
		t.Error("expected HasFlash to find success flash")
	}
	if result.HasFlash("success", "Wrong message") {
		t.Error("expected HasFlash to not find flash with wrong message")
	}
	if result.HasFlash("warning", "Item saved") {
		t.Error("expected HasFlash to not find flash with wrong level")
	}
	if !result.HasFlashLevel("error") {
		t.Error("expected HasFlashLevel to find error")
	}
	if result.HasFlashLevel("info") {
		t.Error("expected HasFlashLevel to not find info")
	}
}

func TestTestResult_Redirect(t *testing.T) {
	result := &TestResult{RedirectURL: "/dashboard"}

	if !result.WasRedirected() {
		t.Error("WasRedirected() = false, want true")
	}
	if !result.RedirectedTo("/dashboard") {
		t.Error("RedirectedTo(/dashboard) = false, want true")
	}
	if result.RedirectedTo("/home") {
		t.Error("RedirectedTo(/home) = true, want false")
	}
	if (&TestResult{}).WasRedirected() {
		t.Error("WasRedirected() on empty result = true, want false")
	}
}

func TestTestResult_StatusAndHeaders(t *testing.T) {
	result := &TestResult{
		StatusCode: http.StatusCreated,
		Headers:    http.Header{"X-Item": {"7"}},
	}

	if result.IsOK() {
		t.Error("IsOK() = true for 201")
	}
	if !result.HasStatus(http.StatusCreated) {
		t.Error("HasStatus(201) = false")
	}
	if !result.HasHeader("X-Item", "7") {
		t.Error("HasHeader(X-Item, 7) = false")
	}
	if result.GetHeader("X-Missing") != "" {
		t.Error("GetHeader(X-Missing) not empty")
	}
}

func TestParseTriggerHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{"empty", "", nil},
		{"simple", "itemSaved", []string{"itemSaved"}},
		{"list", "a, b,,c", []string{"a", "b", "c"}},
		{"json", `{"saved":{"id":1}}`, []string{"saved"}},
		{"bad json", `{"saved"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTriggerHeader(tt.header)
			if len(got) != len(tt.want) {
				t.Fatalf("parseTriggerHeader(%q) = %v, want %v", tt.header, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseTriggerHeader(%q)[%d] = %q, want %q", tt.header, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResultFromHeader(t *testing.T) {
	h := http.Header{}
	h.Add(HeaderTrigger, "one")
	h.Add(HeaderEvent, "two")
	h.Add(HeaderRedirect, "/next")
	h.Add(HeaderFlash, `{"level":"info","message":"hi"}`)
	h.Add(HeaderFlash, `not json`)

	r := resultFromHeader(&TestResult{Headers: h})
	if !r.HasEvent("one") || !r.HasEvent("two") {
		t.Errorf("TriggeredEvents = %v", r.TriggeredEvents)
	}
	if r.RedirectURL != "/next" {
		t.Errorf("RedirectURL = %q", r.RedirectURL)
	}
	if len(r.Flashes) != 1 || !r.HasFlash("info", "hi") {
		t.Errorf("Flashes = %v", r.Flashes)
	}
}

func TestTestRequestBuilder(t *testing.T) {
	var gotMethod, gotHeader, gotHTMX, gotType string
	var gotValue any

	type ctxKey string
	key := ctxKey("k")
	ctx := context.WithValue(context.Background(), key, "v")

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Custom")
		gotHTMX = r.Header.Get(HeaderRequest)
		gotType = r.Header.Get("Content-Type")
		gotValue = r.Context().Value(key)
		w.WriteHeader(http.StatusAccepted)
	})

	result, err := NewTestRequest(http.MethodPatch, "/x").
		WithJSON(map[string]int{"a": 1}).
		WithHeader("X-Custom", "custom-value").
		WithContext(ctx).
		Execute(h)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if gotHeader != "custom-value" {
		t.Errorf("custom header = %s, want 'custom-value'", gotHeader)
	}
	if gotHTMX != "true" {
		t.Errorf("%s = %q, want true", HeaderRequest, gotHTMX)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if gotValue != "v" {
		t.Errorf("context value = %v, want 'v'", gotValue)
	}
	if result.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want %d", result.StatusCode, http.StatusAccepted)
	}
}

func TestTestRequestBuilder_BadJSON(t *testing.T) {
	_, err := NewTestRequest(http.MethodPost, "/").
		WithJSON(make(chan int)).
		Execute(http.NotFoundHandler())
	if err == nil {
		t.Error("expected marshal error")
	}
}

func TestMockHydrater(t *testing.T) {
	mock := NewMockHydrater(func(_ context.Context, s *greetingState) error {
		s.Name = "Injected"
		return nil
	})
	comp := New("test", "Greeting", greetingView).Hydrate(mock)

	result, err := TestRender(comp.Mount("", greetingState{Name: "Original"}))
	if err != nil {
		t.Fatalf("TestRender() error = %v", err)
	}

	if !result.HTMLContains("Hello, Injected!") {
		t.Errorf("expected injected name in output: %s", result.HTML)
	}
	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", mock.Calls())
	}
	last := mock.LastHydrated()
	if last == nil || last.Name != "Injected" {
		t.Errorf("LastHydrated() = %+v", last)
	}
}

func TestMockHydrater_Error(t *testing.T) {
	expectedErr := errors.New("mock hydration error")
	mock := NewMockHydrater(func(context.Context, *greetingState) error {
		return expectedErr
	})
	comp := New("test", "Greeting", greetingView).Hydrate(mock)

	_, err := TestRender(comp.Mount("", greetingState{Name: "x"}))
	if !errors.Is(err, expectedErr) {
		t.Errorf("error = %v, want %v", err, expectedErr)
	}
	if !errors.Is(err, ErrHydrationFailed) {
		t.Errorf("error = %v, want ErrHydrationFailed", err)
	}
}

func TestMockHydrater_NilFunc(t *testing.T) {
	mock := NewMockHydrater[greetingState](nil)
	if err := mock.Hydrate(context.Background(), &greetingState{}); err != nil {
		t.Errorf("Hydrate() error = %v", err)
	}
}

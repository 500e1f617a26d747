package hxview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsHTMX(t *testing.T) {
	tests := []struct {
		name   string
		header string
		expect bool
	}{
		{"with HX-Request true", "true", true},
		{"with HX-Request false", "false", false},
		{"without header", "", false},
		{"with other value", "yes", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("HX-Request", tt.header)
			}

			result := IsHTMX(req)
			if result != tt.expect {
				t.Errorf("IsHTMX() = %v, want %v", result, tt.expect)
			}
		})
	}
}

func TestParseHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("HX-Boosted", "true")
	req.Header.Set("HX-Current-URL", "http://example.com/page")
	req.Header.Set("HX-Trigger", "btn-123")
	req.Header.Set("HX-Trigger-Name", "save-draft")
	req.Header.Set("HX-Target", "target-div")

	want := HTMXRequest{
		Boosted:     true,
		CurrentURL:  "http://example.com/page",
		Trigger:     "btn-123",
		TriggerName: "save-draft",
		Target:      "target-div",
	}
	if got := ParseHTMX(req); got != want {
		t.Errorf("ParseHTMX() = %+v, want %+v", got, want)
	}

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	plain.Header.Set("HX-Boosted", "false")
	if got := ParseHTMX(plain); got != (HTMXRequest{}) {
		t.Errorf("ParseHTMX(no headers) = %+v, want zero", got)
	}
}

func TestPageSeesHTMXHeaders(t *testing.T) {
	page := Page(func(c *Context) (View, error) {
		h := c.HTMX()
		if h.Boosted {
			return El("main", Text("boosted from "+h.CurrentURL)), nil
		}
		return Document(nil, El("main", Text("full"))), nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Boosted", "true")
	req.Header.Set("HX-Current-URL", "/inbox")
	rec := httptest.NewRecorder()
	page.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strip(rec.Body.String()); !strings.HasPrefix(got, "<main>boosted from /inbox</main>") {
		t.Errorf("body = %q, want boosted content", got)
	}

	if NewContext(context.Background()).HTMX() != (HTMXRequest{}) {
		t.Error("HTMX() outside a page handler should be zero")
	}
}

func TestBuildTriggerHeader(t *testing.T) {
	tests := []struct {
		name        string
		trigger     string
		triggerData map[string]any
		expect      string
	}{
		{
			name:   "empty",
			expect: "",
		},
		{
			name:    "simple trigger",
			trigger: "item-updated",
			expect:  "item-updated",
		},
		{
			name:        "trigger with data",
			trigger:     "filter:changed",
			triggerData: map[string]any{"status": "pending"},
			expect:      `{"filter:changed":{"status":"pending"}}`,
		},
		{
			name:        "trigger with multiple data values",
			trigger:     "item:saved",
			triggerData: map[string]any{"id": "123", "name": "test"},
			expect:      `{"item:saved":{"id":"123","name":"test"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildTriggerHeader(tt.trigger, tt.triggerData)
			if result != tt.expect {
				t.Errorf("BuildTriggerHeader() = %q, want %q", result, tt.expect)
			}
		})
	}
}

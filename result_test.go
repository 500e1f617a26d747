package hxview

import (
	"errors"
	"net/http"
	"testing"
)

type testResultState struct {
	ID   int
	Name string
}

func TestResultOK(t *testing.T) {
	state := testResultState{ID: 1, Name: "test"}
	r := OK(state)

	if r.GetState().ID != 1 {
		t.Errorf("GetState().ID = %d, want %d", r.GetState().ID, 1)
	}
	if r.GetState().Name != "test" {
		t.Errorf("GetState().Name = %q, want %q", r.GetState().Name, "test")
	}
	if r.GetErr() != nil {
		t.Errorf("GetErr() = %v, want nil", r.GetErr())
	}
	if r.ShouldSkip() {
		t.Error("ShouldSkip() = true, want false")
	}
	if r.GetRedirect() != "" {
		t.Errorf("GetRedirect() = %q, want empty", r.GetRedirect())
	}
}

func TestResultErr(t *testing.T) {
	state := testResultState{ID: 1}
	testErr := errors.New("test error")
	r := Err(state, testErr)

	if r.GetErr() != testErr {
		t.Errorf("GetErr() = %v, want %v", r.GetErr(), testErr)
	}
	if r.GetState().ID != 1 {
		t.Errorf("GetState().ID = %d, want %d", r.GetState().ID, 1)
	}
}

func TestResultSkip(t *testing.T) {
	r := Skip[testResultState]()

	if !r.ShouldSkip() {
		t.Error("ShouldSkip() = false, want true")
	}
	current := testResultState{ID: 7}
	if got := r.next(current); got != current {
		t.Errorf("next() = %+v, want current state %+v", got, current)
	}
}

func TestResultRedirect(t *testing.T) {
	r := Redirect[testResultState]("/new-location")

	if r.GetRedirect() != "/new-location" {
		t.Errorf("GetRedirect() = %q, want %q", r.GetRedirect(), "/new-location")
	}
	current := testResultState{ID: 3}
	if got := r.next(current); got != current {
		t.Errorf("next() = %+v, want current state kept on redirect", got)
	}
}

func TestResultFlash(t *testing.T) {
	state := testResultState{ID: 1}
	r := OK(state).
		Flash(FlashSuccess, "Item saved").
		Flash(FlashError, "But something else failed")

	flashes := r.GetFlashes()
	if len(flashes) != 2 {
		t.Fatalf("len(GetFlashes()) = %d, want 2", len(flashes))
	}

	if flashes[0].Level != FlashSuccess {
		t.Errorf("flashes[0].Level = %q, want %q", flashes[0].Level, FlashSuccess)
	}
	if flashes[0].Message != "Item saved" {
		t.Errorf("flashes[0].Message = %q, want %q", flashes[0].Message, "Item saved")
	}

	if flashes[1].Level != FlashError {
		t.Errorf("flashes[1].Level = %q, want %q", flashes[1].Level, FlashError)
	}
	if flashes[1].Message != "But something else failed" {
		t.Errorf("flashes[1].Message = %q, want %q", flashes[1].Message, "But something else failed")
	}
}

func TestResultTrigger(t *testing.T) {
	state := testResultState{ID: 1}
	r := OK(state).Trigger("itemUpdated")

	if r.GetTrigger() != "itemUpdated" {
		t.Errorf("GetTrigger() = %q, want %q", r.GetTrigger(), "itemUpdated")
	}

	r = OK(state).Trigger("filter:changed", map[string]any{"status": "active"})
	if r.GetTriggerData()["status"] != "active" {
		t.Errorf("GetTriggerData() = %v, want status=active", r.GetTriggerData())
	}
}

func TestResultHeader(t *testing.T) {
	state := testResultState{ID: 1}
	r := OK(state).
		Header("X-Custom-Header", "custom-value").
		Header("X-Another", "another-value").
		PushURL("/items/1")

	headers := r.GetHeaders()
	if headers["X-Custom-Header"] != "custom-value" {
		t.Errorf("Header X-Custom-Header = %q, want %q", headers["X-Custom-Header"], "custom-value")
	}
	if headers["X-Another"] != "another-value" {
		t.Errorf("Header X-Another = %q, want %q", headers["X-Another"], "another-value")
	}
	if headers[HeaderPushURL] != "/items/1" {
		t.Errorf("Header %s = %q, want %q", HeaderPushURL, headers[HeaderPushURL], "/items/1")
	}
}

func TestResultStatus(t *testing.T) {
	state := testResultState{ID: 1}
	r := OK(state).Status(201)

	if r.GetStatus() != 201 {
		t.Errorf("GetStatus() = %d, want %d", r.GetStatus(), 201)
	}
}

func TestResultChaining(t *testing.T) {
	state := testResultState{ID: 1, Name: "test"}
	r := OK(state).
		Flash(FlashSuccess, "Saved!").
		Trigger("itemSaved").
		Header("X-Item-ID", "1").
		Status(201)

	if len(r.GetFlashes()) != 1 {
		t.Error("Flash not set")
	}
	if r.GetTrigger() != "itemSaved" {
		t.Error("Trigger not set")
	}
	if r.GetHeaders()["X-Item-ID"] != "1" {
		t.Error("Header not set")
	}
	if r.GetStatus() != 201 {
		t.Error("Status not set")
	}
	if r.GetState().ID != 1 {
		t.Error("State lost during chaining")
	}
}

func TestResultApply(t *testing.T) {
	r := OK(testResultState{}).
		Flash(FlashInfo, "hello").
		Trigger("saved", map[string]any{"id": 1}).
		Header("X-Item", "1")

	h := make(http.Header)
	r.apply(h, true)
	if h.Get("X-Item") != "1" {
		t.Errorf("X-Item = %q, want %q", h.Get("X-Item"), "1")
	}
	if got := h.Get(HeaderTrigger); got != `{"saved":{"id":1}}` {
		t.Errorf("%s = %q", HeaderTrigger, got)
	}
	if got := h.Get(HeaderFlash); got != `{"level":"info","message":"hello"}` {
		t.Errorf("%s = %q", HeaderFlash, got)
	}

	h = make(http.Header)
	r.apply(h, false)
	if len(h.Values(HeaderFlash)) != 0 {
		t.Errorf("flash headers written with flashHeaders=false: %v", h.Values(HeaderFlash))
	}

	h = make(http.Header)
	Redirect[testResultState]("/done").apply(h, true)
	if h.Get(HeaderRedirect) != "/done" {
		t.Errorf("%s = %q, want /done", HeaderRedirect, h.Get(HeaderRedirect))
	}
}

func TestResultDefaultValues(t *testing.T) {
	state := testResultState{ID: 1}
	r := OK(state)

	if r.GetErr() != nil {
		t.Error("Default error should be nil")
	}
	if r.GetRedirect() != "" {
		t.Error("Default redirect should be empty")
	}
	if len(r.GetFlashes()) != 0 {
		t.Error("Default flashes should be empty")
	}
	if r.GetTrigger() != "" {
		t.Error("Default trigger should be empty")
	}
	if len(r.GetHeaders()) != 0 {
		t.Error("Default headers should be empty")
	}
	if r.GetStatus() != 0 {
		t.Error("Default status should be 0")
	}
	if r.ShouldSkip() {
		t.Error("Default skip should be false")
	}
}

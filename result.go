package hxview

import (
	"encoding/json"
	"net/http"
)

// Result[S] is returned from action handlers to control rendering and side effects.
//
// Result is a fluent builder that lets handlers set flash messages,
// redirects, events and headers without touching the response. The
// framework applies it after the handler returns and re-renders the
// component with the new state.
//
// Example patterns:
//
//	// Success - re-render with the updated state
//	return hxview.OK(state)
//
//	// Success with flash message
//	return hxview.OK(state).Flash("success", "Saved!")
//
//	// Error - the render fails with err
//	return hxview.Err(state, err)
//
//	// Redirect via Hx-Redirect header
//	return hxview.Redirect[State]("/dashboard")
//
//	// Broadcast an event with data
//	return hxview.OK(state).Trigger("filter:changed", map[string]any{"status": "active"})
type Result[S any] struct {
	state       S
	err         error
	redirect    string
	flashes     []Flash
	trigger     string
	triggerData map[string]any
	headers     map[string]string
	status      int
	skip        bool
}

// OK creates a success result that re-renders with the given state.
func OK[S any](state S) Result[S] {
	return Result[S]{state: state}
}

// Err creates an error result. The render fails with err, which decides
// the response status (see StatusOf).
//
// State is included so callers inspecting the result can still see it.
func Err[S any](state S, err error) Result[S] {
	return Result[S]{state: state, err: err}
}

// Skip creates a result that keeps the current state. The component still
// renders, and an unchanged render costs only placeholders.
func Skip[S any]() Result[S] {
	return Result[S]{skip: true}
}

// Redirect creates a result that will redirect via the Hx-Redirect header.
// The current state is kept.
//
//	return hxview.Redirect[State]("/dashboard")
func Redirect[S any](url string) Result[S] {
	return Result[S]{redirect: url}
}

// Flash adds a flash message (toast notification) to the result.
//
// Component updates return flashes in their JSON response; page updates
// carry them in Hx-Flash headers. Levels typically include "success",
// "error", "warning", "info" (see FlashSuccess, FlashError constants).
//
//	return hxview.OK(state).
//	    Flash("success", "Primary action completed").
//	    Flash("info", "Notification sent")
func (r Result[S]) Flash(level, message string) Result[S] {
	r.flashes = append(r.flashes, Flash{Level: level, Message: message})
	return r
}

// Trigger emits an event via the Hx-Trigger header.
//
//	// Emitter (no data):
//	return hxview.OK(state).Trigger("item-updated")
//
//	// Emitter (with data):
//	return hxview.OK(state).Trigger("filter:changed", map[string]any{"status": "active"})
func (r Result[S]) Trigger(event string, data ...map[string]any) Result[S] {
	r.trigger = event
	if len(data) > 0 {
		r.triggerData = data[0]
	}
	return r
}

// PushURL updates the browser URL via the Hx-Push-Url header.
func (r Result[S]) PushURL(url string) Result[S] {
	return r.Header(HeaderPushURL, url)
}

// Header sets a custom response header.
//
//	return hxview.OK(state).Header("Cache-Control", "no-store")
func (r Result[S]) Header(key, value string) Result[S] {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

// Status sets the HTTP status code of a component update response.
//
//	return hxview.OK(state).Status(http.StatusCreated)
func (r Result[S]) Status(code int) Result[S] {
	r.status = code
	return r
}

// GetState returns the state from the result.
func (r Result[S]) GetState() S {
	return r.state
}

// GetErr returns the error from the result.
func (r Result[S]) GetErr() error {
	return r.err
}

// GetRedirect returns the redirect URL.
func (r Result[S]) GetRedirect() string {
	return r.redirect
}

// GetFlashes returns the flash messages.
func (r Result[S]) GetFlashes() []Flash {
	return r.flashes
}

// GetTrigger returns the trigger event name.
func (r Result[S]) GetTrigger() string {
	return r.trigger
}

// GetTriggerData returns the trigger event data.
func (r Result[S]) GetTriggerData() map[string]any {
	return r.triggerData
}

// GetHeaders returns the response headers.
func (r Result[S]) GetHeaders() map[string]string {
	return r.headers
}

// GetStatus returns the HTTP status code (0 means not set, use default 200).
func (r Result[S]) GetStatus() int {
	return r.status
}

// ShouldSkip returns whether the handler asked to keep the current state.
func (r Result[S]) ShouldSkip() bool {
	return r.skip
}

// next returns the state to render after the action.
func (r Result[S]) next(current S) S {
	if r.skip || r.redirect != "" {
		return current
	}
	return r.state
}

// apply writes the result's side effects into h. Flashes become Hx-Flash
// headers only when flashHeaders is set; component updates return them in
// the body instead.
func (r Result[S]) apply(h http.Header, flashHeaders bool) {
	for k, v := range r.headers {
		h.Set(k, v)
	}
	if r.redirect != "" {
		h.Set(HeaderRedirect, r.redirect)
	}
	if t := BuildTriggerHeader(r.trigger, r.triggerData); t != "" {
		h.Add(HeaderTrigger, t)
	}
	if !flashHeaders {
		return
	}
	for _, f := range r.flashes {
		data, err := json.Marshal(f)
		if err != nil {
			continue
		}
		h.Add(HeaderFlash, string(data))
	}
}

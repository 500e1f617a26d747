package hxview

import (
	"encoding/json"
	"net/http"
)

// Request and response headers understood by hxview and htmx. Values are
// in canonical MIME form.
const (
	HeaderRequest      = "Hx-Request"
	HeaderBoosted      = "Hx-Boosted"
	HeaderCurrentURL   = "Hx-Current-Url"
	HeaderTrigger      = "Hx-Trigger"
	HeaderTriggerName  = "Hx-Trigger-Name"
	HeaderTarget       = "Hx-Target"
	HeaderRedirect     = "Hx-Redirect"
	HeaderPushURL      = "Hx-Push-Url"
	HeaderEvent        = "Hx-Event"
	HeaderEventPayload = "Hx-Event-Payload"
	HeaderFlash        = "Hx-Flash"
)

// IsHTMX returns true if the request originated from htmx.
//
// htmx sends HX-Request: true on all requests. Use this to conditionally
// render partial content for htmx vs full page for direct browser requests:
//
//	if hxview.IsHTMX(r) {
//	    return partialView()
//	}
//	return fullPageView()
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderRequest) == "true"
}

// HTMXRequest holds the htmx request headers of the request being served.
// A page handler parses it once and exposes it through Context.HTMX.
type HTMXRequest struct {
	// Boosted is set for hx-boost navigations, which usually want the main
	// content without the layout.
	Boosted bool
	// CurrentURL is the URL the browser is on, not the request URL.
	CurrentURL string
	// Trigger and TriggerName are the id and name of the element that
	// triggered the request, e.g. which submit button was clicked.
	Trigger     string
	TriggerName string
	// Target is the id of the target element.
	Target string
}

// ParseHTMX reads the htmx headers of r. Headers that are absent yield
// zero values.
func ParseHTMX(r *http.Request) HTMXRequest {
	return HTMXRequest{
		Boosted:     r.Header.Get(HeaderBoosted) == "true",
		CurrentURL:  r.Header.Get(HeaderCurrentURL),
		Trigger:     r.Header.Get(HeaderTrigger),
		TriggerName: r.Header.Get(HeaderTriggerName),
		Target:      r.Header.Get(HeaderTarget),
	}
}

// BuildTriggerHeader builds a properly formatted HX-Trigger header value.
//
// Supports two cases:
//  1. Simple event name: "item-updated" -> "item-updated"
//  2. Event with data: "filter:changed" + {"status": "active"} -> {"filter:changed": {"status": "active"}}
//
// When data is provided with an event, htmx fires the event with evt.detail
// set to the data object.
func BuildTriggerHeader(trigger string, triggerData map[string]any) string {
	if trigger == "" {
		return ""
	}
	if triggerData == nil {
		return trigger
	}
	data, err := json.Marshal(map[string]any{trigger: triggerData})
	if err != nil {
		return trigger
	}
	return string(data)
}

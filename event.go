package hxview

import (
	"bytes"
	"encoding/json"
	"net/url"
)

// EventNamer is implemented by event payload types. EventID must work on
// the zero value, so implement it on a value receiver.
//
//	type Increment struct{ By int `json:"by"` }
//
//	func (Increment) EventID() string { return "increment" }
type EventNamer interface {
	EventID() string
}

// EventData is an inbound event of an update request.
type EventData struct {
	ID string `json:"eventId"`

	// Target is the component instance the event is addressed to; 0
	// addresses every instance and the page itself.
	Target  uint32  `json:"target,omitempty"`
	Payload Payload `json:"payload,omitempty"`
}

// Payload is the raw body of an event or action, always held as JSON.
type Payload struct {
	raw json.RawMessage
}

// JSONPayload wraps raw JSON.
func JSONPayload(raw []byte) Payload {
	return Payload{raw: bytes.Clone(raw)}
}

// FormPayload converts urlencoded values to a JSON object. Keys with one
// value become strings and keys with several become arrays of strings, so
// numeric fields need a `json:",string"` tag.
func FormPayload(values url.Values) (Payload, error) {
	if len(values) == 0 {
		return Payload{}, nil
	}
	m := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			m[k] = vs[0]
		} else {
			m[k] = vs
		}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return Payload{}, serializeError("form payload", err)
	}
	return Payload{raw: raw}, nil
}

// IsEmpty reports whether the payload carries no data.
func (p Payload) IsEmpty() bool {
	trimmed := bytes.TrimSpace(p.raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Bind decodes the payload into v. An empty payload leaves v untouched.
func (p Payload) Bind(v any) error {
	if p.IsEmpty() {
		return nil
	}
	if err := json.Unmarshal(p.raw, v); err != nil {
		return deserializeError("event payload", err)
	}
	return nil
}

// Raw returns the payload JSON.
func (p Payload) Raw() json.RawMessage {
	return p.raw
}

// MarshalJSON implements json.Marshaler.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("null"), nil
	}
	return p.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	p.raw = bytes.Clone(data)
	return nil
}

// Event returns the inbound event decoded as E when its id matches. A
// payload that fails to decode is recorded in the Context's deferred error
// and reported as no event; the render then fails once it completes.
func Event[E EventNamer](c *Context) (E, bool) {
	return readEvent[E](c, false)
}

// TakeEvent is Event, but consumes the event so later calls see nothing.
func TakeEvent[E EventNamer](c *Context) (E, bool) {
	return readEvent[E](c, true)
}

func readEvent[E EventNamer](c *Context, take bool) (E, bool) {
	var e E
	c.req.mu.Lock()
	ev := c.req.event
	if ev == nil || ev.ID != e.EventID() {
		c.req.mu.Unlock()
		return e, false
	}
	if take {
		c.req.event = nil
	}
	c.req.mu.Unlock()

	if err := ev.Payload.Bind(&e); err != nil {
		c.fail(err)
		var zero E
		return zero, false
	}
	return e, true
}

// currentEvent returns the inbound event without consuming it.
func (c *Context) currentEvent() *EventData {
	c.req.mu.Lock()
	defer c.req.mu.Unlock()
	return c.req.event
}

// consumeEvent removes ev if it is still the current event.
func (c *Context) consumeEvent(ev *EventData) {
	c.req.mu.Lock()
	if c.req.event == ev {
		c.req.event = nil
	}
	c.req.mu.Unlock()
}

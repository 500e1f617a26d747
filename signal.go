package hxview

import "encoding/json"

type eventSignal struct {
	id      string
	payload any
}

// FireEvent asks the client to dispatch an event once the response is
// applied. The event id goes to the Hx-Event header and the payload, JSON
// encoded, to Hx-Event-Payload. It renders no output and no node.
//
//	hxview.Fragment{list, hxview.FireEvent("cart:updated", cart.Summary())}
func FireEvent(id string, payload any) View {
	return eventSignal{id: id, payload: payload}
}

func (e eventSignal) Render(_ *Context, r *Renderer) error {
	r.Header().Set(HeaderEvent, e.id)
	if e.payload == nil {
		return nil
	}
	data, err := json.Marshal(e.payload)
	if err != nil {
		return serializeError("event payload", err)
	}
	r.Header().Set(HeaderEventPayload, string(data))
	return nil
}

type redirectSignal string

// RedirectTo asks the client to navigate to url through the Hx-Redirect
// header. It renders no output and no node.
func RedirectTo(url string) View {
	return redirectSignal(url)
}

func (u redirectSignal) Render(_ *Context, r *Renderer) error {
	r.Header().Set(HeaderRedirect, string(u))
	return nil
}

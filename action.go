package hxview

import (
	"net/http"
	"path"
	"strconv"

	"github.com/a-h/templ"
)

// ActionBuilder configures action registration (e.g., HTTP method override).
//
// Returned by Component.Action() to allow optional method override:
//
//	c.Action("edit", handler)  // POST by default
//	c.Action("raw", handler).Method(http.MethodPut)
type ActionBuilder struct {
	methods map[string]string
	name    string
}

// Method overrides the default POST method for an action.
//
// Use for idempotent updates that should use PUT, or for semantic deletions
// that should use DELETE:
//
//	c.Action("rename", rename).Method(http.MethodPut)
//	c.Action("delete", remove).Method(http.MethodDelete)
func (ab *ActionBuilder) Method(m string) *ActionBuilder {
	ab.methods[ab.name] = m
	return ab
}

// ActionPath returns the registry path of an action when the registry is
// mounted at base.
func ActionPath(base string, id ComponentID, action string) string {
	return path.Join("/", base, id.String(), action)
}

// WireAttrs builds the minimal htmx attributes that send an action of the
// instance to a registry mounted at base. The client extension reads the
// enclosing hx-component's island and posts it as the update body.
//
// All other htmx attributes (hx-target, hx-swap, hx-trigger, etc.) are
// written by the caller:
//
//	hxview.El("button", hxview.Text("+")).
//	    Attrs(hxview.WireAttrs("/_c", inst, "increment"))
func WireAttrs[S any](base string, inst *Instance[S], action string) templ.Attributes {
	method, ok := inst.comp.method(action)
	if !ok {
		method = http.MethodPost
	}
	url := ActionPath(base, inst.comp.id, action)

	attrs := templ.Attributes{
		"hx-ext":         "hxview",
		"data-hx-target": strconv.FormatUint(uint64(inst.ID()), 10),
	}
	switch method {
	case http.MethodPut:
		attrs["hx-put"] = url
	case http.MethodPatch:
		attrs["hx-patch"] = url
	case http.MethodDelete:
		attrs["hx-delete"] = url
	default:
		attrs["hx-post"] = url
	}
	return attrs
}

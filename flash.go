package hxview

// Flash levels for toast notifications.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash represents a one-time notification message.
//
// Component updates return flashes in the "flashes" field of their JSON
// response. Page updates carry one Hx-Flash header per flash. Either way the
// client appends them to the toast container, and the data-auto-dismiss
// attribute tells it when to remove them.
//
// Typical usage:
//
//	return hxview.OK(state).Flash("success", "Item saved!")
//	return hxview.Err(state, err).Flash("error", "Save failed")
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ToastsID is the id of the toast container.
const ToastsID = "toasts"

// Toasts renders flashes inside the toast container. With no flashes it
// renders the empty container, so place it in the layout once (typically
// near the end of body):
//
//	hxview.El("body", content, hxview.Toasts(nil))
func Toasts(flashes []Flash) View {
	items := make([]View, 0, len(flashes))
	for _, f := range flashes {
		items = append(items, El("div", Text(f.Message)).
			Attr("class", "toast toast-"+f.Level).
			Attr("data-auto-dismiss", "3000"))
	}
	return El("div", items...).
		Attr("id", ToastsID).
		Attr("class", "toast-container")
}

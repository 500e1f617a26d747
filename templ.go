package hxview

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pthm/hxview/lib/hashing"
)

// Templ renders a templ component as one leaf node. The component's
// output is hashed as a whole, so it is either sent in full or replaced by
// the unchanged placeholder.
func Templ(t templ.Component) View {
	return ViewFunc(func(c *Context, r *Renderer) error {
		var sb strings.Builder
		if err := t.Render(c.Context(), &sb); err != nil {
			return err
		}
		r.Raw(sb.String())
		return nil
	})
}

// ToTempl turns a view into a templ component, for embedding hxview views
// in templ layouts. The view renders in its own Context with nothing to
// reconcile against.
func ToTempl(v View, opts ...Option) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := NewContext(ctx, opts...).Render(v)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out.HTML)
		return err
	})
}

var ugcPolicy = sync.OnceValue(bluemonday.UGCPolicy)

// Sanitized renders untrusted HTML, such as user-written markdown output,
// through bluemonday's UGC policy as a leaf node.
func Sanitized(html string) View {
	return rawView(ugcPolicy().Sanitize(html))
}

// ContentHash fingerprints content with the same hash the renderer uses.
func ContentHash(content []byte) uint32 {
	return hashing.Sum32(content)
}

// AssetPath appends a content fingerprint to path for cache busting:
//
//	hxview.AssetPath("/static/app.css", css) // "/static/app.css?v=1a2b3c4d"
func AssetPath(path string, content []byte) string {
	v := strconv.FormatUint(uint64(ContentHash(content)), 16)
	if len(v) < hashWidth {
		v = strings.Repeat("0", hashWidth-len(v)) + v
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "v=" + v
}

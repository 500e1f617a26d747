// Package hxview renders HTML on the server while hashing every node, so a
// later render of the same page can skip whatever the client already has.
//
// A render produces three things: the HTML, the response headers collected
// by views, and a hash tree recording the structural hash of every node in
// pre-order. The client keeps the tree and sends it back with its next
// update request. The server renders again, walks the new nodes alongside
// the old tree, and replaces every subtree whose hash did not change with
// the <!--unchanged--> placeholder. The server never keeps previous HTML and
// never diffs DOM trees.
//
// # Views and Renderers
//
// A View renders itself into a Renderer:
//
//	page := hxview.El("main",
//	    hxview.El("h1", hxview.Text("Inbox")),
//	    hxview.El("ul", items...).Attr("class", "messages"),
//	)
//	out, err := hxview.NewContext(ctx).Render(page)
//
// Each element reserves a fixed-width data-hx-hash attribute when it opens
// and patches it with its hash when it closes. An element's hash covers its
// tag, its attributes (in any order) and its children (in order). Text is
// hashed before escaping.
//
// Elements named in the hashless list (html, head, body by default) and
// everything inside head carry no hash attribute and are never replaced.
//
// # Update Renders
//
// An update render reconciles against the previous tree:
//
//	c := hxview.NewContext(ctx,
//	    hxview.WithUpdate(),
//	    hxview.WithPrevious(prevTree),
//	    hxview.WithEvent(hxview.EventData{ID: "increment"}),
//	)
//	out, err := c.Render(page)
//
// Views read the inbound event with Event or TakeEvent. Trees are compared
// by position only: inserting an item before its siblings changes every
// sibling after it.
//
// # Fragments and Async Views
//
// A Fragment renders siblings. Async views and component instances inside a
// fragment render concurrently, and their output is spliced back in source
// order, so the result never depends on which finished first.
//
// # Components
//
// Components carry serializable state across requests:
//
//	var Counter = hxview.New("demo", "Counter", counterView)
//	Counter.Action("increment", increment)
//
//	hxview.Fragment{Counter.Mount("a", State{}), Counter.Mount("b", State{})}
//
// Each instance is written as <hx-component id data-id> holding its body and,
// when it changed, a JSON island with its state and its own hash tree. The
// client returns these as descendants on the next update, and the instance
// restores its state from them. A state that is missing or fails to decode
// mounts fresh from the initial state.
//
// State is shipped as plain JSON by default. A SealedCodec signs it (HMAC)
// or, when sensitive, encrypts it (AES-GCM) so clients can neither forge
// nor read it.
//
// # HTTP
//
// Page serves a page: GET renders in full with the tree embedded before
// </body>, POST and PUT answer updates with {html, hashTree}. A Registry
// serves component updates at /{module.Name}/{action}. Mutating methods
// require the HX-Request: true header that htmx sends, which protects
// against cross-origin form posts without tokens.
//
// # Errors
//
// Misuse of the rendering API, such as writing an attribute after content
// or closing elements out of order, returns errors matching ErrInternal
// rather than panicking. Failures map to HTTP statuses through StatusOf.
package hxview

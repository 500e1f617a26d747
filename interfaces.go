package hxview

import (
	"context"
	"net/http"
)

// Hydrater reconstructs rich objects from the serialized ids in state.
// Called before every view render of a component, after actions run.
//
// Hydration transforms lean, serializable state into fully-populated objects
// by fetching from databases, caches, or other sources. This keeps the state
// shipped to the client minimal while views always see complete data.
//
// Example:
//
//	type viewerHydrater struct{ repo *ops.Repo }
//
//	func (h viewerHydrater) Hydrate(ctx context.Context, state *State) error {
//	    state.Repo = h.repo.Get(state.RepoID)
//	    return nil
//	}
//
// The hydrated copy is only seen by the view. The state that is hashed and
// shipped to the client is the one before hydration. The copy is shallow:
// assign new maps and slices rather than writing into the ones already in
// the state, or the writes reach the shipped state too.
type Hydrater[S any] interface {
	Hydrate(ctx context.Context, state *S) error
}

// HydrateFunc adapts a function to the Hydrater interface.
type HydrateFunc[S any] func(ctx context.Context, state *S) error

// Hydrate calls f.
func (f HydrateFunc[S]) Hydrate(ctx context.Context, state *S) error {
	return f(ctx, state)
}

// Registrable is implemented by *Component[S] so a Registry can serve
// component updates without knowing S.
type Registrable interface {
	ID() ComponentID
	method(action string) (string, bool)
	serveUpdate(c *Context, req *UpdateRequest, header http.Header) (*UpdateResponse, error)
}

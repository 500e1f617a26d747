package hxview

import (
	"encoding/json"
	"fmt"

	"github.com/pthm/hxview/lib/encoding"
	"github.com/pthm/hxview/lib/hashtree"
)

// PreviousComponent is what a client sends back for one component instance:
// the state it last received and the instance's private hash tree. Exactly
// one of State and Sealed is set, depending on the codec in use.
//
// The same shape is embedded in rendered output as the instance's data
// island.
type PreviousComponent struct {
	State    json.RawMessage `json:"state,omitempty"`
	Sealed   string          `json:"sealed,omitempty"`
	HashTree hashtree.Tree   `json:"hashTree"`
}

// StateCodec turns component state and its tree into a PreviousComponent
// and back.
type StateCodec interface {
	Encode(state any, tree hashtree.Tree) (PreviousComponent, error)
	Decode(prev PreviousComponent, state any) (hashtree.Tree, error)
}

// JSONCodec ships state as plain JSON. It is the default.
type JSONCodec struct{}

// Encode implements StateCodec.
func (JSONCodec) Encode(state any, tree hashtree.Tree) (PreviousComponent, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return PreviousComponent{}, serializeError("component state", err)
	}
	return PreviousComponent{State: raw, HashTree: nonNilTree(tree)}, nil
}

// Decode implements StateCodec.
func (JSONCodec) Decode(prev PreviousComponent, state any) (hashtree.Tree, error) {
	if len(prev.State) == 0 {
		return nil, fmt.Errorf("%w: component state missing", ErrDeserialize)
	}
	if err := json.Unmarshal(prev.State, state); err != nil {
		return nil, deserializeError("component state", err)
	}
	return prev.HashTree, nil
}

// SealedCodec packs state and tree into one signed or encrypted token so
// clients can neither read (when sensitive) nor forge component state.
// State types generated by the hxview tool use their HXEncode/HXDecode
// methods; other types go through msgpack directly.
type SealedCodec struct {
	enc       *encoding.Encoder
	sensitive bool
}

type sealedSnapshot struct {
	State []byte        `msgpack:"s"`
	Tree  hashtree.Tree `msgpack:"t"`
}

// NewSealedCodec creates a codec with the given key. If sensitive is true
// tokens are encrypted; otherwise they are signed.
func NewSealedCodec(key []byte, sensitive bool) (*SealedCodec, error) {
	enc, err := encoding.NewEncoder(key)
	if err != nil {
		return nil, err
	}
	return &SealedCodec{enc: enc, sensitive: sensitive}, nil
}

// Encode implements StateCodec.
func (s *SealedCodec) Encode(state any, tree hashtree.Tree) (PreviousComponent, error) {
	packed, err := encoding.Marshal(state)
	if err != nil {
		return PreviousComponent{}, serializeError("component state", err)
	}
	token, err := s.enc.Encode(sealedSnapshot{State: packed, Tree: tree}, s.sensitive)
	if err != nil {
		return PreviousComponent{}, serializeError("sealed snapshot", err)
	}
	return PreviousComponent{Sealed: token, HashTree: nonNilTree(tree)}, nil
}

// Decode implements StateCodec. The tree inside the token wins over the
// one sent alongside it.
func (s *SealedCodec) Decode(prev PreviousComponent, state any) (hashtree.Tree, error) {
	if prev.Sealed == "" {
		return nil, fmt.Errorf("%w: sealed state missing", ErrDeserialize)
	}
	var snap sealedSnapshot
	if err := s.enc.Decode(prev.Sealed, s.sensitive, &snap); err != nil {
		return nil, wrapEncodingError(err)
	}
	if err := encoding.Unmarshal(snap.State, state); err != nil {
		return nil, wrapEncodingError(err)
	}
	return snap.Tree, nil
}

func nonNilTree(t hashtree.Tree) hashtree.Tree {
	if t == nil {
		return hashtree.Tree{}
	}
	return t
}

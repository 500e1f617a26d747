// Package hashtree implements the flattened pre-order record of a render.
//
// A tree is a sequence of markers. Start opens a node and End(hash) closes
// the innermost open node with its structural hash. The render root has no
// Start; its End is always the final marker. Position in the sequence is the
// only addressing scheme: there are no node ids.
//
// On the wire a Start is the string "s" and an End is its hash as a
// non-negative 32-bit integer. Both JSON and msgpack encodings are provided.
package hashtree

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// ErrInvalidMarker is returned when decoding a value that is neither "s"
// nor an unsigned 32-bit integer.
var ErrInvalidMarker = errors.New("hashtree: invalid marker")

// ErrMalformed is returned by Tree.Validate for trees whose markers do not
// nest.
var ErrMalformed = errors.New("hashtree: malformed tree")

const startLiteral = "s"

// Marker is a single Start or End entry.
type Marker struct {
	end  bool
	hash uint32
}

// Start returns a node-opening marker.
func Start() Marker {
	return Marker{}
}

// End returns a node-closing marker carrying the node's hash.
func End(hash uint32) Marker {
	return Marker{end: true, hash: hash}
}

// IsStart reports whether m opens a node.
func (m Marker) IsStart() bool {
	return !m.end
}

// Hash returns the hash of an End marker. The second result is false for
// Start markers.
func (m Marker) Hash() (uint32, bool) {
	return m.hash, m.end
}

func (m Marker) String() string {
	if !m.end {
		return startLiteral
	}
	return strconv.FormatUint(uint64(m.hash), 10)
}

// MarshalJSON implements json.Marshaler.
func (m Marker) MarshalJSON() ([]byte, error) {
	if !m.end {
		return []byte(`"s"`), nil
	}
	return strconv.AppendUint(nil, uint64(m.hash), 10), nil
}

// UnmarshalJSON implements json.Unmarshaler. Anything other than "s" or an
// integer in [0, 2^32-1] is rejected.
func (m *Marker) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		if string(data) != `"s"` {
			return fmt.Errorf("%w: %s", ErrInvalidMarker, data)
		}
		*m = Start()
		return nil
	}
	n, err := strconv.ParseUint(string(data), 10, 32)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMarker, data)
	}
	*m = End(uint32(n))
	return nil
}

var (
	_ msgpack.CustomEncoder = Marker{}
	_ msgpack.CustomDecoder = (*Marker)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (m Marker) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !m.end {
		return enc.EncodeString(startLiteral)
	}
	return enc.EncodeUint32(m.hash)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (m *Marker) DecodeMsgpack(dec *msgpack.Decoder) error {
	code, err := dec.PeekCode()
	if err != nil {
		return err
	}
	if msgpcode.IsString(code) {
		s, err := dec.DecodeString()
		if err != nil {
			return err
		}
		if s != startLiteral {
			return fmt.Errorf("%w: %q", ErrInvalidMarker, s)
		}
		*m = Start()
		return nil
	}
	n, err := dec.DecodeInt64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMarker, err)
	}
	if n < 0 || n > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrInvalidMarker, n)
	}
	*m = End(uint32(n))
	return nil
}

// Tree is a flattened pre-order walk of one render.
type Tree []Marker

// Root returns the hash carried by the final marker, which belongs to the
// render root. It reports false for an empty tree or one that does not end
// in an End marker.
func (t Tree) Root() (uint32, bool) {
	if len(t) == 0 {
		return 0, false
	}
	return t[len(t)-1].Hash()
}

// Len returns the number of markers.
func (t Tree) Len() int {
	return len(t)
}

// Nodes returns the number of nodes below the root.
func (t Tree) Nodes() int {
	n := 0
	for _, m := range t {
		if m.IsStart() {
			n++
		}
	}
	return n
}

// Equal reports whether both trees hold the same markers in the same order.
func (t Tree) Equal(o Tree) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// Validate checks that every End closes the most recent unmatched Start and
// that the tree finishes with exactly one unmatched End for the root.
func (t Tree) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformed)
	}
	depth := 0
	for i, m := range t {
		if m.IsStart() {
			depth++
			continue
		}
		if depth == 0 {
			if i != len(t)-1 {
				return fmt.Errorf("%w: root closed at marker %d of %d", ErrMalformed, i, len(t))
			}
			return nil
		}
		depth--
	}
	if depth == 0 {
		return fmt.Errorf("%w: missing root marker", ErrMalformed)
	}
	return fmt.Errorf("%w: %d unclosed nodes", ErrMalformed, depth)
}

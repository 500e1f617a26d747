// Package hashing provides the 32-bit streaming hash used to fingerprint
// rendered nodes and fold child hashes into their parents.
//
// Hashes are xxhash64 digests folded to 32 bits. They are not
// cryptographic; collisions are an accepted risk.
package hashing

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hasher is a streaming 32-bit hash accumulator.
type Hasher struct {
	d *xxhash.Digest
}

// New returns an empty Hasher.
func New() *Hasher {
	return &Hasher{d: xxhash.New()}
}

// Write feeds raw bytes into the hash.
func (h *Hasher) Write(p []byte) {
	_, _ = h.d.Write(p)
}

// WriteString feeds a string into the hash without copying it.
func (h *Hasher) WriteString(s string) {
	_, _ = h.d.WriteString(s)
}

// WriteByte feeds a single separator byte into the hash.
func (h *Hasher) WriteByte(b byte) error {
	var buf [1]byte
	buf[0] = b
	_, err := h.d.Write(buf[:])
	return err
}

// WriteUint32 folds a finished hash (usually a child's) into this one.
func (h *Hasher) WriteUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.d.Write(buf[:])
}

// Sum32 returns the current 32-bit hash. It does not change the state.
func (h *Hasher) Sum32() uint32 {
	return Fold(h.d.Sum64())
}

// Reset clears the hasher for reuse.
func (h *Hasher) Reset() {
	h.d.Reset()
}

// Fold reduces a 64-bit digest to 32 bits.
func Fold(sum uint64) uint32 {
	return uint32(sum) ^ uint32(sum>>32)
}

// Sum32 hashes b in one shot.
func Sum32(b []byte) uint32 {
	return Fold(xxhash.Sum64(b))
}

// Sum32String hashes s in one shot.
func Sum32String(s string) uint32 {
	return Fold(xxhash.Sum64String(s))
}

// Sum32Kind hashes s prefixed by kind, so values of different kinds never
// share a hash even when their strings are equal.
func Sum32Kind(kind byte, s string) uint32 {
	d := xxhash.New()
	_, _ = d.Write([]byte{kind, 0})
	_, _ = d.WriteString(s)
	return Fold(d.Sum64())
}

// Stack holds one Hasher per open scope depth. Popped hashers are kept and
// reset on the next Push so a recycled Stack does not allocate.
type Stack struct {
	hashers []*Hasher
	n       int
}

// Push opens a new, empty hasher and returns it.
func (s *Stack) Push() *Hasher {
	if s.n == len(s.hashers) {
		s.hashers = append(s.hashers, New())
	} else {
		s.hashers[s.n].Reset()
	}
	s.n++
	return s.hashers[s.n-1]
}

// Top returns the innermost open hasher, or nil if the stack is empty.
func (s *Stack) Top() *Hasher {
	if s.n == 0 {
		return nil
	}
	return s.hashers[s.n-1]
}

// Bottom returns the outermost open hasher, or nil if the stack is empty.
func (s *Stack) Bottom() *Hasher {
	if s.n == 0 {
		return nil
	}
	return s.hashers[0]
}

// Pop closes the innermost hasher and returns its sum. Popping an empty
// stack returns 0.
func (s *Stack) Pop() uint32 {
	if s.n == 0 {
		return 0
	}
	s.n--
	return s.hashers[s.n].Sum32()
}

// Len reports the number of open hashers.
func (s *Stack) Len() int {
	return s.n
}

// Reset closes every hasher but keeps them for reuse.
func (s *Stack) Reset() {
	s.n = 0
}

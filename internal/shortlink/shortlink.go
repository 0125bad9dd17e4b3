// Package shortlink derives compact reversible codes from recipe ids.
package shortlink

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
)

// Alphabet without 0/O/I/l to keep codes unambiguous when read aloud.
const baseAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const minLength = 6

var ErrInvalidCode = errors.New("shortlink: invalid code")

// Codec encodes numeric ids into short codes over a secret-shuffled
// alphabet. The same secret always yields the same codes, so codes can be
// generated once at creation time and decoded later.
type Codec struct {
	alphabet string
	index    map[byte]uint64
}

// New builds a codec keyed by secret.
func New(secret string) *Codec {
	h := fnv.New64a()
	h.Write([]byte(secret))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	letters := []byte(baseAlphabet)
	rng.Shuffle(len(letters), func(i, j int) {
		letters[i], letters[j] = letters[j], letters[i]
	})

	c := &Codec{alphabet: string(letters), index: make(map[byte]uint64, len(letters))}
	for i := 0; i < len(letters); i++ {
		c.index[letters[i]] = uint64(i)
	}
	return c
}

// Encode turns an id into a code of at least minLength characters.
func (c *Codec) Encode(id uint) string {
	base := uint64(len(c.alphabet))
	n := uint64(id)

	var sb strings.Builder
	for n > 0 {
		sb.WriteByte(c.alphabet[n%base])
		n /= base
	}
	for sb.Len() < minLength {
		sb.WriteByte(c.alphabet[0])
	}

	// Digits were emitted least-significant first.
	code := []byte(sb.String())
	for i, j := 0, len(code)-1; i < j; i, j = i+1, j-1 {
		code[i], code[j] = code[j], code[i]
	}
	return string(code)
}

// Decode inverts Encode.
func (c *Codec) Decode(code string) (uint, error) {
	if code == "" {
		return 0, ErrInvalidCode
	}
	base := uint64(len(c.alphabet))
	var n uint64
	for i := 0; i < len(code); i++ {
		digit, ok := c.index[code[i]]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
		n = n*base + digit
	}
	return uint(n), nil
}

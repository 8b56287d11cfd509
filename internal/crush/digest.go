package crush

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// digestDomain separates crush digests from any other use of the key.
// The version suffix allows a later algorithm migration.
const digestDomain = "crush/digest/v1"

// Token is the hex encoded digest of an (asker, target) pair.
type Token string

func (t Token) String() string { return string(t) }

// Digester computes keyed, one-way, direction sensitive pair tokens.
type Digester struct {
	key []byte
}

// NewDigester returns a Digester keyed with key (at most 64 bytes).
func NewDigester(key []byte) (*Digester, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("digest key must not be empty")
	}
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("digest key longer than %d bytes", blake2b.Size)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Digester{key: k}, nil
}

// Digest returns the token for asker → target.
// Format: BLAKE2b-256_key(domain 0x00 asker 0x00 target).
// The null separators keep ("ab","c") and ("a","bc") apart, and the fixed
// field order makes Digest(a, b) differ from Digest(b, a).
func (d *Digester) Digest(asker, target string) Token {
	h, err := blake2b.New256(d.key)
	if err != nil {
		// key length is checked in NewDigester
		panic(err)
	}
	h.Write([]byte(digestDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(asker))
	h.Write([]byte{0x00})
	h.Write([]byte(target))
	return Token(hex.EncodeToString(h.Sum(nil)))
}

package uniuri

import "crypto/rand"

const (
	// StdLen is the default length of a generated string, giving ~95 bits of entropy.
	StdLen = 16

	// TokenLen is the length used for OAuth2 state values and OIDC nonces,
	// giving ~190 bits of entropy.
	TokenLen = 32
)

// StdChars is the set of characters allowed in a generated string.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// New returns a new random string of the standard length.
func New() string {
	return NewLen(StdLen)
}

// NewLen returns a new random string of the provided length, consisting of
// standard characters.
func NewLen(length int) string {
	return NewLenChars(length, StdChars)
}

// NewLenChars returns a new random string of the provided length, consisting
// of the provided characters (between 2 and 256).
//
// Bytes read from the system CSPRNG are rejection-sampled so every character
// of the result is uniformly distributed over chars.
func NewLenChars(length int, chars []byte) string {
	if length == 0 {
		return ""
	}

	clen := len(chars)
	if clen < 2 || clen > 256 {
		panic("uniuri: wrong charset length for NewLenChars")
	}

	// Reject byte values that would bias the modulo reduction.
	maxrb := 255 - (256 % clen)

	buf := make([]byte, length+(length/2))
	out := make([]byte, length)

	i := 0

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, rb := range buf {
			c := int(rb)
			if c > maxrb {
				continue // would bias the modulo below
			}

			out[i] = chars[c%clen]
			i++

			if i == length {
				return string(out)
			}
		}
	}
}

// Package slug generates the short share identifiers given to events.
package slug

import (
	"crypto/rand"
	"regexp"
)

// Length is the number of characters in a slug.
const Length = 6

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// 62*4 = 248; bytes at or above this are rejected so every symbol is equally likely.
const maxByte = 256 - (256 % len(alphabet))

var pattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// Generate returns a fresh random slug.  It only generates; uniqueness is
// enforced by the store.
func Generate() string {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand never fails on supported platforms.
			panic("slug: crypto/rand unavailable: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out)
}

// Valid reports whether s looks like a slug.
func Valid(s string) bool { return pattern.MatchString(s) }

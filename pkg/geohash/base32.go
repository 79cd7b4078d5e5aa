package geohash

import (
	"fmt"
	"strings"
)

// Alphabet holds the 32 cell symbols in bit order: digits and lower-case
// letters without a, i, l, o. It is in ascending byte order.
const Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// symbolFor expects a 5-bit value.
func symbolFor(bits int) byte {
	return Alphabet[bits]
}

func bitsFor(ch byte) (int, error) {
	i := strings.IndexByte(Alphabet, ch)
	if i < 0 {
		return 0, fmt.Errorf("%w: character %q is not in the base32 alphabet", ErrInvalidGeohash, ch)
	}
	return i, nil
}

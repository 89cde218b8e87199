// Package pin generates and checks the 6-digit completion codes a client
// hands to a provider once a service has been paid.
package pin

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
)

// Length is the number of digits in a PIN.
const Length = 6

// MaxAttempts is how many wrong guesses a PIN tolerates before it is locked
// and the client has to issue a new one.
const MaxAttempts = 5

var upper = big.NewInt(1_000_000)

// Generate returns a uniformly random 6-digit numeric code, leading zeros
// included.
func Generate() (string, error) {
	return generate(rand.Reader)
}

func generate(r io.Reader) (string, error) {
	n, err := rand.Int(r, upper)
	if err != nil {
		return "", fmt.Errorf("generating pin: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()), nil
}

// Valid reports whether s has the shape of a PIN.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Equal compares a submitted code against the stored one in constant time.
func Equal(stored, submitted string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// Remaining returns how many guesses are left after used failed attempts.
func Remaining(used int) int {
	if used >= MaxAttempts {
		return 0
	}
	return MaxAttempts - used
}

package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

var mobileRe = regexp.MustCompile(`^09\d{9}$`)

// ValidMobile reports whether s is an 11-digit mobile number with the
// national 09 prefix, e.g. "09123456789".
func ValidMobile(s string) bool {
	return mobileRe.MatchString(s)
}

// GenerateCode returns a random numeric code of the given length with
// a non-zero leading digit, so length is stable across issuance and
// validation.
func GenerateCode(length int) (string, error) {
	if length < 4 {
		length = 4
	}
	low := int64(1)
	for i := 1; i < length; i++ {
		low *= 10
	}
	// e.g. length 5: uniform over [10000, 99999]
	n, err := rand.Int(rand.Reader, big.NewInt(low*9))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", low+n.Int64()), nil
}

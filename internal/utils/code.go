package utils

import (
    "crypto/rand"
    "fmt"
    "math/big"
    "strings"

    "github.com/google/uuid"
)

// NewCheckinCode returns a 4-digit check-in code as a zero-padded
// string.  The code is a secret shared with the customer at creation
// and consumed exactly once at check-in; comparison is string
// equality, so the leading zeros matter.
func NewCheckinCode() (string, error) {
    n, err := rand.Int(rand.Reader, big.NewInt(10000))
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("%04d", n.Int64()), nil
}

// NewOrderNumber returns a short display identifier for a
// reservation, e.g. "PM-1A2B3C4D".  It is shown on receipts and in
// chat and is never used for lookups, so uniqueness beyond the
// random prefix of a UUID is not required.
func NewOrderNumber() string {
    u := uuid.New()
    hex := strings.ToUpper(strings.ReplaceAll(u.String(), "-", ""))
    return "PM-" + hex[:8]
}

package numerator

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// TransferCodeLength is the random part of a transfer reference.
const TransferCodeLength = 8

// RandomCode returns prefix followed by n upper-case base36 characters.
func RandomCode(prefix string, n int) (string, error) {
	var b strings.Builder
	b.Grow(len(prefix) + n)
	b.WriteString(prefix)

	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random code: %w", err)
		}
		b.WriteByte(base36[v.Int64()])
	}
	return b.String(), nil
}

// TransferCode returns a transfer reference of the form ST<8 base36 chars>.
func TransferCode() (string, error) {
	return RandomCode("ST", TransferCodeLength)
}

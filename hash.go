package simdb

import (
	"crypto/sha1"
	"encoding/hex"
)

// Hash returns the ContentKey of js: the hex SHA-1 digest of its
// canonical serialization. It is deterministic and independent of map
// iteration order, but sensitive to numeric type: Params{"a": 10} and
// Params{"a": 10.0} produce different keys.
func Hash(js Params) (string, error) {
	b, err := marshalCanonical(js, 0)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}

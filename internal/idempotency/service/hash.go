package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// requestHash computes an order-independent digest of a request payload.
// The payload is round-tripped through generic JSON before hashing because
// encoding/json emits map keys sorted, which canonicalizes field order.
func requestHash(data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

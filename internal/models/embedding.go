// ABOUTME: Embedding column codec: vectors are stored as JSON-encoded number arrays
// ABOUTME: Decoding never fails; malformed or missing data means "no semantic signal"
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ParseEmbedding decodes a stored embedding. It returns nil for NULL, blank,
// non-array, or non-numeric payloads.
func ParseEmbedding(raw *string) []float64 {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil
	}
	var vec []float64
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil
	}
	if len(vec) == 0 {
		return nil
	}
	return vec
}

// EncodeEmbedding encodes a vector for storage. NaN and Inf cannot be
// represented in JSON and are rejected.
func EncodeEmbedding(vec []float64) (string, error) {
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("embedding value %d is not finite", i)
		}
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("failed to encode embedding: %w", err)
	}
	return string(data), nil
}

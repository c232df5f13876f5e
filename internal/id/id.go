// Package id generates short random identifiers for SSE clients.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// PrefixSSEClient marks event stream connections in logs and the health check.
	PrefixSSEClient = "sse"

	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	length   = 12
)

// Generate returns prefix, an underscore and 12 lowercase alphanumerics,
// e.g. "sse_4k9z0q1m2x7b".
func Generate(prefix string) (string, error) {
	s, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + "_" + s, nil
}

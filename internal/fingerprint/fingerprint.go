// Package fingerprint derives the cache key of an outbound call.
//
// A fingerprint is an HS256 JWT over {body, url, operationType}. No time based
// claims are included, so the same input always signs to the same token. The
// body is canonicalised first: object keys are sorted and insignificant
// whitespace is dropped. Array order stays significant.
package fingerprint

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Generator produces fingerprints
type Generator interface {
	Generate(body json.RawMessage, url, operationType string) (string, error)
}

// JWTGenerator signs request identity with a shared secret
type JWTGenerator struct {
	secret []byte
}

// NewJWTGenerator creates a generator. The secret must not be empty.
func NewJWTGenerator(secret string) (*JWTGenerator, error) {
	if secret == "" {
		return nil, fmt.Errorf("fingerprint secret is required")
	}
	return &JWTGenerator{secret: []byte(secret)}, nil
}

// Generate returns the fingerprint for the given request identity
func (g *JWTGenerator) Generate(body json.RawMessage, url, operationType string) (string, error) {
	canonical, err := Canonicalize(body)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize body: %w", err)
	}

	claims := jwt.MapClaims{
		"body":          canonical,
		"url":           url,
		"operationType": operationType,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign fingerprint: %w", err)
	}
	return token, nil
}

// Canonicalize decodes a JSON value so it re-encodes with sorted object keys.
// Numbers are kept verbatim. An absent body canonicalises to nil.
func Canonicalize(body json.RawMessage) (interface{}, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return value, nil
}

// Package encoding converts request bodies to their wire form and normalises
// upstream responses into envelopes.
package encoding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"integration-gateway/internal/models"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Payload is an encoded request body. Body is nil when nothing is sent.
type Payload struct {
	Body        []byte
	ContentType string
}

// Encode maps body to its wire representation for the given encoding.
// An empty encoding is treated as JSON.
func Encode(body json.RawMessage, encoding models.BodyEncoding) (*Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &Payload{}, nil
	}

	switch encoding {
	case models.EncodingJSON, "":
		return &Payload{Body: body, ContentType: ContentTypeJSON}, nil
	case models.EncodingRaw:
		if trimmed[0] == '"' {
			var text string
			if err := json.Unmarshal(trimmed, &text); err != nil {
				return nil, fmt.Errorf("invalid raw body: %w", err)
			}
			return &Payload{Body: []byte(text), ContentType: ContentTypeText}, nil
		}
		return &Payload{Body: body, ContentType: ContentTypeText}, nil
	case models.EncodingForm:
		values, err := FormValues(trimmed)
		if err != nil {
			return nil, err
		}
		return &Payload{Body: []byte(values.Encode()), ContentType: ContentTypeForm}, nil
	default:
		return nil, fmt.Errorf("unsupported body encoding: %s", encoding)
	}
}

// FormValues converts a flat JSON object into key=value pairs. Every value is
// rendered as its string form; null becomes the empty string. Nested objects
// and arrays are rejected.
func FormValues(body json.RawMessage) (url.Values, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("form body must be a JSON object: %w", err)
	}

	values := make(url.Values, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case nil:
			values.Set(key, "")
		case string:
			values.Set(key, v)
		case json.Number:
			values.Set(key, v.String())
		case bool:
			values.Set(key, fmt.Sprint(v))
		default:
			return nil, fmt.Errorf("form field %q must be a scalar value", key)
		}
	}
	return values, nil
}

// StrictDecode reports whether responses to method must be valid JSON
func StrictDecode(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodDelete:
		return true
	default:
		return false
	}
}

// SendsBody reports whether a request body goes on the wire for method.
// GET and DELETE requests are sent without one.
func SendsBody(method string) bool {
	return !StrictDecode(method)
}

// Decode normalises a raw response body. GET and DELETE responses must be
// JSON; other methods fall back to the raw text stored as a JSON string.
// The fallback text is UTF-8: invalid byte sequences become U+FFFD.
// An empty body yields an empty envelope.
func Decode(method string, raw []byte) (*models.ResponseEnvelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return models.EmptyEnvelope(), nil
	}

	if json.Valid(trimmed) {
		data := make(json.RawMessage, len(trimmed))
		copy(data, trimmed)
		return &models.ResponseEnvelope{ResponseData: data}, nil
	}

	if StrictDecode(method) {
		return nil, fmt.Errorf("response to %s is not valid JSON", strings.ToUpper(method))
	}

	text, err := json.Marshal(string(raw))
	if err != nil {
		return nil, err
	}
	return &models.ResponseEnvelope{ResponseData: text}, nil
}

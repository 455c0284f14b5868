package models

import (
	"bytes"
	"encoding/json"
)

// OperationType selects how a request is executed
type OperationType string

const (
	// OperationSync executes the call in-line with cache-aside semantics
	OperationSync OperationType = "SYNC"
	// OperationFireAndForget hands the call to the work queue and returns only an id
	OperationFireAndForget OperationType = "FIRE_AND_FORGET"
)

// BodyEncoding is the wire representation used for the outbound request body
type BodyEncoding string

const (
	EncodingJSON BodyEncoding = "JSON"
	EncodingForm BodyEncoding = "FORM"
	EncodingRaw  BodyEncoding = "RAW"
)

// NoStrictTTL is the sentinel meaning "use the process default TTL"
const NoStrictTTL = -1

// CachePolicy controls how the synchronous path uses the cache
type CachePolicy struct {
	BypassCache              bool `json:"bypassCache"`
	AlwaysReadFromCache      bool `json:"alwaysReadFromCache"`
	StrictCacheTimeInMinutes int  `json:"strictCacheTimeInMinutes" validate:"min=-1"`
}

// IntegrationRequest describes one outbound HTTP call
type IntegrationRequest struct {
	URL           string            `json:"url" validate:"required,http_url"`
	Method        string            `json:"requestMethod" validate:"required,oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	Headers       map[string]string `json:"requestHeader,omitempty"`
	Body          json.RawMessage   `json:"requestBody,omitempty" swaggertype:"object"`
	BodyEncoding  BodyEncoding      `json:"bodyEncoding,omitempty" validate:"omitempty,oneof=JSON FORM RAW"`
	IsFormData    bool              `json:"isFormData,omitempty"`
	OperationType OperationType     `json:"operationType" validate:"required,oneof=SYNC FIRE_AND_FORGET"`
	CachePolicy   CachePolicy       `json:"cachePolicy"`
	ID            string            `json:"id,omitempty"`
}

// HasBody reports whether the request carries a non-null body
func (r *IntegrationRequest) HasBody() bool {
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ResponseEnvelope is returned to callers and stored in the cache.
// ResponseData holds parsed JSON, or the raw response text as a JSON string.
type ResponseEnvelope struct {
	ID           string          `json:"id,omitempty"`
	ResponseData json.RawMessage `json:"responseData,omitempty" swaggertype:"object"`
}

// EmptyEnvelope returns an envelope with neither id nor data
func EmptyEnvelope() *ResponseEnvelope {
	return &ResponseEnvelope{}
}

// IsEmpty reports whether the envelope carries no id and no data
func (e *ResponseEnvelope) IsEmpty() bool {
	return e == nil || (e.ID == "" && len(e.ResponseData) == 0)
}

// RawText returns the response text when the envelope holds the lenient
// string fallback. ok is false for structured data.
func (e *ResponseEnvelope) RawText() (text string, ok bool) {
	if e == nil || len(e.ResponseData) == 0 || e.ResponseData[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(e.ResponseData, &text); err != nil {
		return "", false
	}
	return text, true
}

// ErrorResponse is the error body returned by the HTTP API
type ErrorResponse struct {
	Code       string `json:"code" example:"VALIDATION_ERROR"`
	Message    string `json:"message" example:"url is required"`
	StatusCode int    `json:"statusCode,omitempty" example:"503"`
}

// HealthResponse reports the state of shared collaborators
type HealthResponse struct {
	Status string            `json:"status" example:"healthy"`
	Checks map[string]string `json:"checks"`
}

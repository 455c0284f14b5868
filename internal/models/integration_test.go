package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationRequest_JSONFieldNames(t *testing.T) {
	input := `{
		"url": "https://x/a",
		"requestMethod": "POST",
		"requestHeader": {"X-Trace": "1"},
		"requestBody": {"b": 2, "a": [1, 2]},
		"isFormData": true,
		"operationType": "SYNC",
		"cachePolicy": {"bypassCache": true, "strictCacheTimeInMinutes": 5}
	}`

	var req IntegrationRequest
	require.NoError(t, json.Unmarshal([]byte(input), &req))

	assert.Equal(t, "https://x/a", req.URL)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "1", req.Headers["X-Trace"])
	assert.JSONEq(t, `{"b": 2, "a": [1, 2]}`, string(req.Body))
	assert.True(t, req.IsFormData)
	assert.Equal(t, OperationSync, req.OperationType)
	assert.True(t, req.CachePolicy.BypassCache)
	assert.False(t, req.CachePolicy.AlwaysReadFromCache)
	assert.Equal(t, 5, req.CachePolicy.StrictCacheTimeInMinutes)
}

func TestIntegrationRequest_HasBody(t *testing.T) {
	assert.False(t, (&IntegrationRequest{}).HasBody())
	assert.False(t, (&IntegrationRequest{Body: json.RawMessage(" null ")}).HasBody())
	assert.True(t, (&IntegrationRequest{Body: json.RawMessage(`{}`)}).HasBody())
	assert.True(t, (&IntegrationRequest{Body: json.RawMessage(`"text"`)}).HasBody())
}

func TestResponseEnvelope(t *testing.T) {
	t.Run("empty envelope serializes to an empty object", func(t *testing.T) {
		data, err := json.Marshal(EmptyEnvelope())
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(data))
		assert.True(t, EmptyEnvelope().IsEmpty())
	})

	t.Run("id only", func(t *testing.T) {
		data, err := json.Marshal(&ResponseEnvelope{ID: "abc"})
		require.NoError(t, err)
		assert.Equal(t, `{"id":"abc"}`, string(data))
	})

	t.Run("raw text fallback", func(t *testing.T) {
		env := &ResponseEnvelope{ResponseData: json.RawMessage(`"plain text"`)}
		text, ok := env.RawText()
		assert.True(t, ok)
		assert.Equal(t, "plain text", text)

		_, ok = (&ResponseEnvelope{ResponseData: json.RawMessage(`{"a":1}`)}).RawText()
		assert.False(t, ok)
	})
}

package testutil

import (
	"encoding/json"
	"time"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/models"
)

// RequestBuilder helps build integration requests
type RequestBuilder struct {
	req *models.IntegrationRequest
}

// NewRequestBuilder starts from a SYNC GET with the default cache policy.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		req: &models.IntegrationRequest{
			URL:           "https://x/a",
			Method:        "GET",
			Headers:       map[string]string{},
			BodyEncoding:  models.EncodingJSON,
			OperationType: models.OperationSync,
			CachePolicy:   models.CachePolicy{StrictCacheTimeInMinutes: models.NoStrictTTL},
		},
	}
}

func (b *RequestBuilder) WithURL(url string) *RequestBuilder {
	b.req.URL = url
	return b
}

func (b *RequestBuilder) WithMethod(method string) *RequestBuilder {
	b.req.Method = method
	return b
}

func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	if b.req.Headers == nil {
		b.req.Headers = map[string]string{}
	}
	b.req.Headers[key] = value
	return b
}

func (b *RequestBuilder) WithBody(body string) *RequestBuilder {
	b.req.Body = json.RawMessage(body)
	return b
}

func (b *RequestBuilder) WithEncoding(encoding models.BodyEncoding) *RequestBuilder {
	b.req.BodyEncoding = encoding
	return b
}

func (b *RequestBuilder) FireAndForget() *RequestBuilder {
	b.req.OperationType = models.OperationFireAndForget
	return b
}

func (b *RequestBuilder) BypassCache() *RequestBuilder {
	b.req.CachePolicy.BypassCache = true
	return b
}

func (b *RequestBuilder) AlwaysReadFromCache() *RequestBuilder {
	b.req.CachePolicy.AlwaysReadFromCache = true
	return b
}

func (b *RequestBuilder) WithStrictTTL(minutes int) *RequestBuilder {
	b.req.CachePolicy.StrictCacheTimeInMinutes = minutes
	return b
}

func (b *RequestBuilder) Build() *models.IntegrationRequest {
	return b.req
}

// IncomingMessageBuilder helps build broker deliveries
type IncomingMessageBuilder struct {
	message *brokers.IncomingMessage
}

func NewIncomingMessageBuilder() *IncomingMessageBuilder {
	return &IncomingMessageBuilder{
		message: &brokers.IncomingMessage{
			ID:        "test-message-id",
			Headers:   make(map[string]string),
			Timestamp: time.Now(),
			Source: brokers.BrokerInfo{
				Name: "mock",
				Type: "mock",
			},
			Metadata: make(map[string]interface{}),
		},
	}
}

func (b *IncomingMessageBuilder) WithID(id string) *IncomingMessageBuilder {
	b.message.ID = id
	return b
}

func (b *IncomingMessageBuilder) WithHeader(key, value string) *IncomingMessageBuilder {
	b.message.Headers[key] = value
	return b
}

func (b *IncomingMessageBuilder) WithBody(body []byte) *IncomingMessageBuilder {
	b.message.Body = body
	return b
}

func (b *IncomingMessageBuilder) WithJSONBody(data interface{}) *IncomingMessageBuilder {
	body, _ := json.Marshal(data)
	b.message.Body = body
	return b
}

func (b *IncomingMessageBuilder) Build() *brokers.IncomingMessage {
	return b.message
}

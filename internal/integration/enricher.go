package integration

import (
	"strings"

	"integration-gateway/internal/models"
)

// Enricher fills in defaults on a validated request
type Enricher interface {
	Enrich(req *models.IntegrationRequest) error
}

// DefaultEnricher applies the gateway defaults
type DefaultEnricher struct{}

func (DefaultEnricher) Enrich(req *models.IntegrationRequest) error {
	req.Method = strings.ToUpper(strings.TrimSpace(req.Method))

	if req.BodyEncoding == "" {
		if req.IsFormData {
			req.BodyEncoding = models.EncodingForm
		} else {
			req.BodyEncoding = models.EncodingJSON
		}
	}

	if req.OperationType == "" {
		req.OperationType = models.OperationSync
	}

	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}

	return nil
}

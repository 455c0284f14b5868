package integration

import (
	"bytes"
	"encoding/json"
	"strings"

	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/validation"
	"integration-gateway/internal/encoding"
	"integration-gateway/internal/models"
)

// Validator rejects malformed requests before any I/O
type Validator interface {
	Validate(req *models.IntegrationRequest) error
}

// RequestValidator checks struct tags and the cross-field rules of a request
type RequestValidator struct {
	validator *validation.CentralizedValidator
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validator: validation.NewCentralizedValidator()}
}

// Validate runs before enrichment, so the method is compared case-insensitively
// and the legacy isFormData flag is honoured.
func (v *RequestValidator) Validate(req *models.IntegrationRequest) error {
	if req == nil {
		return errors.ValidationError("request body is required")
	}

	normalized := *req
	normalized.Method = strings.ToUpper(strings.TrimSpace(req.Method))
	if err := v.validator.ValidateStruct(&normalized); err != nil {
		return err
	}

	if req.CachePolicy.BypassCache && req.CachePolicy.AlwaysReadFromCache {
		return errors.ValidationError("cachePolicy.bypassCache and cachePolicy.alwaysReadFromCache cannot both be true")
	}

	if len(bytes.TrimSpace(req.Body)) > 0 && !json.Valid(req.Body) {
		return errors.ValidationError("field 'requestBody' must be valid JSON")
	}

	if formEncoded(req) && req.HasBody() {
		if _, err := encoding.FormValues(req.Body); err != nil {
			return errors.ValidationError(err.Error())
		}
	}

	return nil
}

func formEncoded(req *models.IntegrationRequest) bool {
	if req.BodyEncoding != "" {
		return req.BodyEncoding == models.EncodingForm
	}
	return req.IsFormData
}

package integration

import (
	"context"

	"github.com/stretchr/testify/mock"

	"integration-gateway/internal/models"
)

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, topic string, req *models.IntegrationRequest) (string, error) {
	args := m.Called(ctx, topic, req)
	return args.String(0), args.Error(1)
}

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, req *models.IntegrationRequest) (*models.ResponseEnvelope, error) {
	args := m.Called(ctx, req)
	if env := args.Get(0); env != nil {
		return env.(*models.ResponseEnvelope), args.Error(1)
	}
	return nil, args.Error(1)
}

type failingEnricher struct {
	err error
}

func (f failingEnricher) Enrich(*models.IntegrationRequest) error {
	return f.err
}

package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"integration-gateway/internal/brokers"
	"integration-gateway/internal/cache"
	apperrors "integration-gateway/internal/common/errors"
	httpclient "integration-gateway/internal/common/http"
	"integration-gateway/internal/dispatch"
	"integration-gateway/internal/executor"
	"integration-gateway/internal/fingerprint"
	"integration-gateway/internal/models"
	"integration-gateway/internal/testutil"
)

const testTopic = "integration-create-external-call"

// recordingExecutor records requests and returns a fixed error
type recordingExecutor struct {
	mu       sync.Mutex
	requests []*models.IntegrationRequest
	err      error
}

func (e *recordingExecutor) Execute(ctx context.Context, req *models.IntegrationRequest) (*models.ResponseEnvelope, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	if e.err != nil {
		return nil, e.err
	}
	return &models.ResponseEnvelope{ResponseData: json.RawMessage(`{}`)}, nil
}

func (e *recordingExecutor) Requests() []*models.IntegrationRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*models.IntegrationRequest(nil), e.requests...)
}

func startWorker(t *testing.T, broker *testutil.MockBroker, exec *recordingExecutor) *Worker {
	t.Helper()
	w := New(broker, testTopic, exec)
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool { return broker.Subscribed(testTopic) }, time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		if w.IsRunning() {
			_ = w.Stop()
		}
	})
	return w
}

func TestWorker_ExecutesQueuedRequests(t *testing.T) {
	broker := testutil.NewMockBroker()
	exec := &recordingExecutor{}
	w := startWorker(t, broker, exec)

	queue := dispatch.NewBrokerQueue(broker)
	req := testutil.NewRequestBuilder().WithMethod("post").WithBody(`{"k":1}`).FireAndForget().Build()
	id, err := queue.Enqueue(context.Background(), testTopic, req)
	require.NoError(t, err)

	requests := exec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, id, requests[0].ID)
	assert.Equal(t, "POST", requests[0].Method)
	assert.Equal(t, models.OperationFireAndForget, requests[0].OperationType)
	assert.JSONEq(t, `{"k":1}`, string(requests[0].Body))

	assert.Equal(t, []string{id}, broker.Acked())
	assert.Equal(t, Stats{Received: 1, Succeeded: 1}, w.Stats())
	assert.NotNil(t, w.LastExecution())
}

func TestWorker_QueuedCallsNeverWriteTheCache(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	gen, err := fingerprint.NewJWTGenerator("0123456789abcdef-secret")
	require.NoError(t, err)
	store := testutil.NewMockStore()
	exec := executor.NewHTTPExecutor(httpclient.NewHTTPClientWrapper(), gen, store, executor.Options{
		TTL: cache.TTLPolicy{Default: time.Minute},
	})

	broker := testutil.NewMockBroker()
	w := New(broker, testTopic, exec)
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool { return broker.Subscribed(testTopic) }, time.Second, 10*time.Millisecond)
	defer w.Stop()

	req := testutil.NewRequestBuilder().WithURL(upstream.URL).WithMethod("POST").WithBody(`{"k":1}`).FireAndForget().Build()
	_, err = dispatch.NewBrokerQueue(broker).Enqueue(context.Background(), testTopic, req)
	require.NoError(t, err)
	exec.Wait()

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, Stats{Received: 1, Succeeded: 1}, w.Stats())
	assert.Equal(t, 0, store.SetCalls())
	assert.Equal(t, 0, store.GetCalls())
}

func TestWorker_FailedCallsAreAcknowledged(t *testing.T) {
	broker := testutil.NewMockBroker()
	exec := &recordingExecutor{err: apperrors.ExternalCallError(503, "unavailable", nil)}
	w := startWorker(t, broker, exec)

	queue := dispatch.NewBrokerQueue(broker)
	id, err := queue.Enqueue(context.Background(), testTopic, testutil.NewRequestBuilder().FireAndForget().Build())
	require.NoError(t, err)

	assert.Len(t, exec.Requests(), 1, "no retry")
	assert.Equal(t, []string{id}, broker.Acked())
	assert.Empty(t, broker.Nacked())
	assert.Equal(t, Stats{Received: 1, Failed: 1}, w.Stats())
}

func TestWorker_DropsInvalidMessages(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"not json", []byte("not json")},
		{"missing url", []byte(`{"requestMethod":"GET","operationType":"FIRE_AND_FORGET"}`)},
		{"conflicting cache flags", []byte(`{"url":"https://x/a","requestMethod":"GET","cachePolicy":{"bypassCache":true,"alwaysReadFromCache":true}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := testutil.NewMockBroker()
			exec := &recordingExecutor{}
			w := New(broker, testTopic, exec)

			msg := testutil.NewIncomingMessageBuilder().WithBody(tt.body).Build()
			assert.NoError(t, w.Handle(context.Background(), msg))

			assert.Empty(t, exec.Requests())
			assert.Equal(t, Stats{Received: 1, Dropped: 1}, w.Stats())
		})
	}
}

func TestWorker_FillsMissingIDFromMessage(t *testing.T) {
	exec := &recordingExecutor{}
	w := New(testutil.NewMockBroker(), testTopic, exec)

	msg := testutil.NewIncomingMessageBuilder().
		WithID("broker-id").
		WithBody([]byte(`{"url":"https://x/a","requestMethod":"GET"}`)).
		Build()
	require.NoError(t, w.Handle(context.Background(), msg))

	requests := exec.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "broker-id", requests[0].ID)
	assert.Equal(t, models.OperationFireAndForget, requests[0].OperationType)
	assert.Equal(t, models.EncodingJSON, requests[0].BodyEncoding)
}

func TestWorker_Lifecycle(t *testing.T) {
	broker := testutil.NewMockBroker()
	w := New(broker, testTopic, &recordingExecutor{})

	assert.ErrorIs(t, w.Health(), ErrNotRunning)
	assert.ErrorIs(t, w.Stop(), ErrNotRunning)

	require.NoError(t, w.Start(context.Background()))
	assert.ErrorIs(t, w.Start(context.Background()), ErrAlreadyRunning)
	assert.True(t, w.IsRunning())
	assert.NoError(t, w.Health())

	broker.HealthError = testutil.ErrNotConnected
	assert.ErrorIs(t, w.Health(), testutil.ErrNotConnected)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestWorker_StopsWithParentContext(t *testing.T) {
	broker := testutil.NewMockBroker()
	w := New(broker, testTopic, &recordingExecutor{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !w.IsRunning() }, time.Second, 10*time.Millisecond)
}

var _ brokers.MessageHandler = (&Worker{}).Handle

package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"integration-gateway/internal/cache"
	apperrors "integration-gateway/internal/common/errors"
	httpclient "integration-gateway/internal/common/http"
	"integration-gateway/internal/fingerprint"
	"integration-gateway/internal/models"
	"integration-gateway/internal/testutil"
)

const testSecret = "0123456789abcdef-secret"

type recordedRequest struct {
	method  string
	body    string
	headers http.Header
}

// upstream serves a fixed reply and records every request it receives
type upstream struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
	server   *httptest.Server
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	u := &upstream{status: status, body: body}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.requests = append(u.requests, recordedRequest{method: r.Method, body: string(data), headers: r.Header.Clone()})
		u.mu.Unlock()
		w.WriteHeader(u.status)
		_, _ = w.Write([]byte(u.body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) last(t *testing.T) recordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	require.NotEmpty(t, u.requests)
	return u.requests[len(u.requests)-1]
}

func (u *upstream) calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

func newTestExecutor(t *testing.T, store cache.Store, opts ...httpclient.ClientOption) (*HTTPExecutor, *fingerprint.JWTGenerator) {
	t.Helper()
	gen, err := fingerprint.NewJWTGenerator(testSecret)
	require.NoError(t, err)

	client := httpclient.NewHTTPClientWrapper(opts...)
	exec := NewHTTPExecutor(client, gen, store, Options{
		TTL:          cache.TTLPolicy{Default: 1500 * time.Millisecond},
		WriteTimeout: time.Second,
	})
	return exec, gen
}

func TestExecute_PopulatesCacheUnderFingerprint(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"a":1}`)
	store := testutil.NewMockStore()
	exec, gen := newTestExecutor(t, store)

	req := testutil.NewRequestBuilder().WithURL(up.server.URL + "/a").Build()

	env, err := exec.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(env.ResponseData))

	exec.Wait()

	key, err := gen.Generate(nil, up.server.URL+"/a", "SYNC")
	require.NoError(t, err)

	entry, ok := store.Entry(key)
	require.True(t, ok, "response should be cached under the request fingerprint")
	assert.Equal(t, env, entry.Envelope)
	assert.Equal(t, 1500*time.Millisecond, entry.TTL, "default TTL comes from the configured milliseconds")
	assert.Equal(t, http.MethodGet, up.last(t).method)
}

func TestExecute_TTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		want    time.Duration
	}{
		{"strict five minutes", 5, 5 * time.Minute},
		{"sentinel uses default", models.NoStrictTTL, 1500 * time.Millisecond},
		{"zero uses default", 0, 1500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpstream(t, http.StatusOK, `{}`)
			store := testutil.NewMockStore()
			exec, gen := newTestExecutor(t, store)

			req := testutil.NewRequestBuilder().WithURL(up.server.URL).WithStrictTTL(tt.minutes).Build()
			_, err := exec.Execute(context.Background(), req)
			require.NoError(t, err)
			exec.Wait()

			key, err := gen.Generate(nil, up.server.URL, "SYNC")
			require.NoError(t, err)
			entry, ok := store.Entry(key)
			require.True(t, ok)
			assert.Equal(t, tt.want, entry.TTL)
		})
	}
}

func TestExecute_NonSuccessStatus(t *testing.T) {
	up := newUpstream(t, http.StatusServiceUnavailable, "unavailable")
	store := testutil.NewMockStore()
	exec, _ := newTestExecutor(t, store)

	_, err := exec.Execute(context.Background(), testutil.NewRequestBuilder().WithURL(up.server.URL).Build())
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeExternalCall, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode)
	assert.Equal(t, "unavailable", appErr.Message)

	exec.Wait()
	assert.Equal(t, 0, store.SetCalls(), "failed calls are never cached")
}

func TestExecute_TransportFailure(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	url := up.server.URL
	up.server.Close()

	exec, _ := newTestExecutor(t, testutil.NewMockStore())

	_, err := exec.Execute(context.Background(), testutil.NewRequestBuilder().WithURL(url).Build())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExternalCall))

	appErr, _ := apperrors.As(err)
	assert.Zero(t, appErr.StatusCode)
	assert.NotEmpty(t, appErr.Message)
}

func TestExecute_ResponseTooLarge(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"data":"`+strings.Repeat("x", 256)+`"}`)
	exec, _ := newTestExecutor(t, testutil.NewMockStore(), httpclient.WithMaxResponseSize(64))

	_, err := exec.Execute(context.Background(), testutil.NewRequestBuilder().WithURL(up.server.URL).Build())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExternalCall))
	assert.ErrorIs(t, err, httpclient.ErrResponseTooLarge)
}

func TestExecute_Decoding(t *testing.T) {
	t.Run("GET requires JSON", func(t *testing.T) {
		up := newUpstream(t, http.StatusOK, "plain text")
		exec, _ := newTestExecutor(t, testutil.NewMockStore())

		_, err := exec.Execute(context.Background(), testutil.NewRequestBuilder().WithURL(up.server.URL).Build())
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeExternalCall, apperrors.Kind(err))

		appErr, _ := apperrors.As(err)
		assert.Contains(t, appErr.Message, "invalid JSON response")
	})

	t.Run("POST falls back to raw text", func(t *testing.T) {
		up := newUpstream(t, http.StatusOK, "plain text")
		exec, _ := newTestExecutor(t, testutil.NewMockStore())

		req := testutil.NewRequestBuilder().WithURL(up.server.URL).WithMethod(http.MethodPost).Build()
		env, err := exec.Execute(context.Background(), req)
		require.NoError(t, err)

		text, ok := env.RawText()
		assert.True(t, ok)
		assert.Equal(t, "plain text", text)
		exec.Wait()
	})

	t.Run("empty body yields empty envelope", func(t *testing.T) {
		up := newUpstream(t, http.StatusNoContent, "")
		exec, _ := newTestExecutor(t, testutil.NewMockStore())

		env, err := exec.Execute(context.Background(), testutil.NewRequestBuilder().WithURL(up.server.URL).Build())
		require.NoError(t, err)
		assert.True(t, env.IsEmpty())
		exec.Wait()
	})
}

func TestExecute_BodyEncoding(t *testing.T) {
	t.Run("FORM body is converted to key=value pairs", func(t *testing.T) {
		up := newUpstream(t, http.StatusOK, `{}`)
		exec, _ := newTestExecutor(t, testutil.NewMockStore())

		req := testutil.NewRequestBuilder().
			WithURL(up.server.URL).
			WithMethod(http.MethodPost).
			WithEncoding(models.EncodingForm).
			WithBody(`{"name":"a b","count":2,"ok":true,"none":null}`).
			Build()

		_, err := exec.Execute(context.Background(), req)
		require.NoError(t, err)
		exec.Wait()

		got := up.last(t)
		assert.Equal(t, "count=2&name=a+b&none=&ok=true", got.body)
		assert.Equal(t, "application/x-www-form-urlencoded", got.headers.Get("Content-Type"))
	})

	t.Run("JSON body passes through byte-identical", func(t *testing.T) {
		up := newUpstream(t, http.StatusOK, `{}`)
		exec, _ := newTestExecutor(t, testutil.NewMockStore())

		body := `{"b": 2,  "a": [1, 2]}`
		req := testutil.NewRequestBuilder().WithURL(up.server.URL).WithMethod(http.MethodPost).WithBody(body).Build()

		_, err := exec.Execute(context.Background(), req)
		require.NoError(t, err)
		exec.Wait()

		got := up.last(t)
		assert.Equal(t, body, got.body)
		assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	})

	t.Run("RAW body passes through", func(t *testing.T) {
		up := newUpstream(t, http.StatusOK, `{}`)
		exec, _ := newTestExecutor(t, testutil.NewMockStore())

		req := testutil.NewRequestBuilder().
			WithURL(up.server.URL).
			WithMethod(http.MethodPut).
			WithEncoding(models.EncodingRaw).
			WithBody(`[1,2,3]`).
			Build()

		_, err := exec.Execute(context.Background(), req)
		require.NoError(t, err)
		exec.Wait()
		assert.Equal(t, `[1,2,3]`, up.last(t).body)
	})

	t.Run("caller content type wins", func(t *testing.T) {
		up := newUpstream(t, http.StatusOK, `{}`)
		exec, _ := newTestExecutor(t, testutil.NewMockStore())

		req := testutil.NewRequestBuilder().
			WithURL(up.server.URL).
			WithMethod(http.MethodPost).
			WithHeader("content-type", "application/vnd.api+json").
			WithHeader("X-Trace", "abc").
			WithBody(`{"a":1}`).
			Build()

		_, err := exec.Execute(context.Background(), req)
		require.NoError(t, err)
		exec.Wait()

		got := up.last(t)
		assert.Equal(t, "application/vnd.api+json", got.headers.Get("Content-Type"))
		assert.Equal(t, "abc", got.headers.Get("X-Trace"))
	})

	t.Run("nested FORM body is rejected before the call", func(t *testing.T) {
		up := newUpstream(t, http.StatusOK, `{}`)
		exec, _ := newTestExecutor(t, testutil.NewMockStore())

		req := testutil.NewRequestBuilder().
			WithURL(up.server.URL).
			WithMethod(http.MethodPost).
			WithEncoding(models.EncodingForm).
			WithBody(`{"a":{"b":1}}`).
			Build()

		_, err := exec.Execute(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		assert.Equal(t, 0, up.calls())
	})
}

func TestExecute_CacheWriteFailureDoesNotFailCall(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"ok":true}`)
	store := testutil.NewMockStore()
	store.ErrorOnMethod["Set"] = apperrors.CacheError("write failed", testutil.ErrTestFailure)
	exec, _ := newTestExecutor(t, store)

	env, err := exec.Execute(context.Background(), testutil.NewRequestBuilder().WithURL(up.server.URL).Build())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(env.ResponseData))

	exec.Wait()
	assert.Equal(t, 1, store.SetCalls())
	assert.Equal(t, 0, store.Len())
}

func TestExecute_CacheWriteDoesNotDelayResult(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	store := testutil.NewMockStore()

	release := make(chan struct{})
	store.SetHook = func(context.Context, string) { <-release }
	exec, _ := newTestExecutor(t, store)

	done := make(chan error, 1)
	go func() {
		_, err := exec.Execute(context.Background(), testutil.NewRequestBuilder().WithURL(up.server.URL).Build())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Execute waited for the cache write")
	}

	assert.Equal(t, 0, store.Len())
	close(release)
	exec.Wait()
	assert.Equal(t, 1, store.Len())
}

func TestExecute_CacheWriteSurvivesCallerCancellation(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	store := testutil.NewMockStore()

	release := make(chan struct{})
	var writeErr error
	store.SetHook = func(ctx context.Context, _ string) {
		<-release
		writeErr = ctx.Err()
	}
	exec, _ := newTestExecutor(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := exec.Execute(ctx, testutil.NewRequestBuilder().WithURL(up.server.URL).Build())
	require.NoError(t, err)

	cancel()
	close(release)
	exec.Wait()

	assert.NoError(t, writeErr)
	assert.Equal(t, 1, store.Len())
}

func TestExecute_WithoutStore(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"a":1}`)
	gen, err := fingerprint.NewJWTGenerator(testSecret)
	require.NoError(t, err)

	exec := NewHTTPExecutor(httpclient.NewHTTPClientWrapper(), gen, nil, Options{})
	env, err := exec.Execute(context.Background(), testutil.NewRequestBuilder().WithURL(up.server.URL).Build())
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(env.ResponseData))
	exec.Wait()
}

func TestHasHeader(t *testing.T) {
	headers := map[string]string{"CONTENT-TYPE": "text/plain"}
	assert.True(t, hasHeader(headers, "Content-Type"))
	assert.False(t, hasHeader(headers, "Accept"))
}

func TestExecute_FireAndForgetIsNotCached(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"queued":true}`)
	store := testutil.NewMockStore()
	exec, _ := newTestExecutor(t, store)

	req := testutil.NewRequestBuilder().
		WithURL(up.server.URL).
		WithMethod(http.MethodPost).
		WithBody(`{"k":1}`).
		FireAndForget().
		Build()

	env, err := exec.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"queued":true}`, string(env.ResponseData))
	exec.Wait()

	assert.Equal(t, 1, up.calls())
	assert.Equal(t, 0, store.SetCalls())
	assert.Equal(t, 0, store.Len())
}

func TestExecute_GetAndDeleteSendNoBody(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			up := newUpstream(t, http.StatusOK, `{}`)
			exec, _ := newTestExecutor(t, testutil.NewMockStore())

			req := testutil.NewRequestBuilder().WithURL(up.server.URL).WithMethod(method).WithBody(`{"k":1}`).Build()
			_, err := exec.Execute(context.Background(), req)
			require.NoError(t, err)
			exec.Wait()

			got := up.last(t)
			assert.Equal(t, method, got.method)
			assert.Empty(t, got.body)
			assert.Empty(t, got.headers.Get("Content-Type"))
		})
	}
}

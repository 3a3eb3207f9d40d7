package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gaborage/go-bricks-probe/logger"
)

const testDateBody = `{"date":"Wed, 24 Sep 2025 19:54:36 GMT"}`

func newIPv4TestServer(t *testing.T, handler nethttp.Handler) *httptest.Server {
	t.Helper()
	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: unable to bind IPv4 listener: %v", err)
		return &httptest.Server{}
	}

	server := &httptest.Server{
		Listener: listener,
		Config:   &nethttp.Server{Handler: handler},
	}
	server.Start()
	return server
}

type roundTripperFunc func(*nethttp.Request) (*nethttp.Response, error)

func (f roundTripperFunc) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	return f(req)
}

func newTestClient() Client {
	return NewBuilder(logger.Nop()).Build()
}

func TestBuilderDefaults(t *testing.T) {
	c, ok := NewBuilder(nil).WithTimeout(0).WithMaxBodySize(-1).Build().(*client)
	require.True(t, ok)
	assert.Equal(t, DefaultTimeout, c.config.Timeout)
	assert.Equal(t, DefaultMaxBodySize, c.config.MaxBodySize)
	assert.NotNil(t, c.logger)
}

func TestClientGet(t *testing.T) {
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, nethttp.MethodGet, r.Method)
		w.WriteHeader(nethttp.StatusOK)
		fmt.Fprint(w, testDateBody)
	}))
	defer server.Close()

	resp, err := newTestClient().Get(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, testDateBody, string(resp.Body))
	assert.Equal(t, int64(1), resp.Stats.CallCount)
}

func TestClientReturnsNonSuccessStatusWithoutError(t *testing.T) {
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
		fmt.Fprint(w, "unavailable")
	}))
	defer server.Close()

	resp, err := newTestClient().Get(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "unavailable", string(resp.Body))
}

func TestClientBodySizeLimit(t *testing.T) {
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		fmt.Fprint(w, strings.Repeat("x", 64))
	}))
	defer server.Close()

	t.Run("within limit", func(t *testing.T) {
		resp, err := NewBuilder(logger.Nop()).WithMaxBodySize(64).Build().
			Get(context.Background(), &Request{URL: server.URL})
		require.NoError(t, err)
		assert.Len(t, resp.Body, 64)
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := NewBuilder(logger.Nop()).WithMaxBodySize(63).Build().
			Get(context.Background(), &Request{URL: server.URL})
		require.Error(t, err)
		assert.True(t, IsErrorType(err, NetworkError))
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})
}

func TestClientDeadlineCoversBodyRead(t *testing.T) {
	release := make(chan struct{})
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		fmt.Fprint(w, `{"date":`)
		w.(nethttp.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewBuilder(logger.Nop()).WithTimeout(50 * time.Millisecond).Build()
	_, err := client.Get(context.Background(), &Request{URL: server.URL})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, TimeoutError))
	assert.Contains(t, err.Error(), "failed to read response body")
}

func TestClientRequestValidation(t *testing.T) {
	client := newTestClient()

	_, err := client.Get(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ValidationError))

	_, err = client.Get(context.Background(), &Request{})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ValidationError))
	assert.Contains(t, err.Error(), "field: url")
}

func TestClientErrorHandling(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		server := newIPv4TestServer(t, nethttp.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newTestClient().Get(context.Background(), &Request{URL: url})
		require.Error(t, err)
		assert.True(t, IsErrorType(err, NetworkError))
		assert.False(t, IsErrorType(err, TimeoutError))
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := NewBuilder(logger.Nop()).WithTimeout(20 * time.Millisecond).Build()

		start := time.Now()
		_, err := client.Get(context.Background(), &Request{URL: server.URL})
		require.Error(t, err)
		assert.True(t, IsErrorType(err, TimeoutError))
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("cancelled parent is a network error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := NewBuilder(logger.Nop()).
			WithTransport(roundTripperFunc(func(req *nethttp.Request) (*nethttp.Response, error) {
				return nil, req.Context().Err()
			})).
			Build()

		_, err := client.Get(ctx, &Request{URL: "http://127.0.0.1:1"})
		require.Error(t, err)
		assert.True(t, IsErrorType(err, NetworkError))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClientReleasesDeadlineOnReturn(t *testing.T) {
	var seen context.Context
	client := NewBuilder(logger.Nop()).
		WithTransport(roundTripperFunc(func(req *nethttp.Request) (*nethttp.Response, error) {
			seen = req.Context()
			return nil, errors.New("dial failed")
		})).
		Build()

	_, err := client.Get(context.Background(), &Request{URL: "http://127.0.0.1:1"})
	require.Error(t, err)
	require.NotNil(t, seen)
	_, hasDeadline := seen.Deadline()
	assert.True(t, hasDeadline)
	assert.ErrorIs(t, seen.Err(), context.Canceled)
}

func TestClientTelemetry(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	client := NewBuilder(logger.Nop()).WithTelemetry(tp, nil).Build()
	_, err := client.Get(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)

	assert.NotEmpty(t, exporter.GetSpans())
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("connection reset")

	netErr := NewNetworkError("request execution failed", cause)
	assert.Equal(t, "network error: request execution failed: connection reset", netErr.Error())
	assert.ErrorIs(t, netErr, cause)

	toErr := NewTimeoutError("request execution failed", 5*time.Second, context.DeadlineExceeded)
	assert.Equal(t, "timeout error: request execution failed (timeout: 5s)", toErr.Error())
	assert.Equal(t, TimeoutError, toErr.Type())

	assert.Equal(t, "network error: closed", NewNetworkError("closed", nil).Error())
	assert.Equal(t, "validation error: bad", NewValidationError("bad", "").Error())
	assert.False(t, IsErrorType(nil, NetworkError))
	assert.False(t, IsErrorType(cause, NetworkError))
}

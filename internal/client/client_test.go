package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"learnpath_backend/internal/config"
	"learnpath_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func endpoint(baseURL string) config.ServiceEndpoint {
	return config.ServiceEndpoint{BaseURL: baseURL, TimeoutSeconds: 1}
}

func TestInvoke_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	c := New("test", endpoint(srv.URL))

	var out struct {
		Value string `json:"value"`
	}
	err := c.Invoke(context.Background(), http.MethodPost, "/echo", map[string]string{"q": "x"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Value)
}

func TestInvoke_PropagatesRequestID(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(util.RequestIDHeader)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("test", endpoint(srv.URL))
	ctx := util.WithRequestID(context.Background(), "req-42")

	err := c.Invoke(ctx, http.MethodGet, "/thing", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "req-42", gotID)
}

func TestInvoke_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := endpoint(srv.URL)
	cfg.APIKey = "secret-key"
	c := New("test", cfg)

	require.NoError(t, c.Invoke(context.Background(), http.MethodGet, "/thing", nil, nil))
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestInvoke_TimeoutKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	c := New("slow", endpoint(srv.URL))

	err := c.Invoke(context.Background(), http.MethodGet, "/thing", nil, nil)

	require.Error(t, err)
	assert.Equal(t, ErrTimeout, KindOf(err))
}

func TestInvoke_ParentCancellationPropagates(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := endpoint(srv.URL)
	cfg.TimeoutSeconds = 30
	c := New("hung", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := c.Invoke(ctx, http.MethodGet, "/thing", nil, nil, Idempotent())
	elapsed := time.Since(start)

	// 上游取消立即传导到在途请求，不等服务级超时，也不触发重试
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvoke_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New("busy", endpoint(srv.URL))

	err := c.Invoke(context.Background(), http.MethodGet, "/thing", nil, nil)

	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrUnavailable, ce.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, ce.Status)
	assert.Contains(t, ce.Body, "overloaded")
}

func TestInvoke_ClientErrorIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New("picky", endpoint(srv.URL))

	err := c.Invoke(context.Background(), http.MethodPost, "/thing", map[string]string{}, nil)

	require.Error(t, err)
	assert.Equal(t, ErrBadResponse, KindOf(err))
}

func TestInvoke_MalformedJSONIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := New("garbled", endpoint(srv.URL))

	var out map[string]interface{}
	err := c.Invoke(context.Background(), http.MethodGet, "/thing", nil, &out)

	require.Error(t, err)
	assert.Equal(t, ErrBadResponse, KindOf(err))
}

func TestInvoke_RetriesOnceWhenIdempotent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// 模拟连接层失败：直接断开
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`{"value":"recovered"}`))
	}))
	defer srv.Close()

	c := New("flaky", endpoint(srv.URL))

	var out struct {
		Value string `json:"value"`
	}
	err := c.Invoke(context.Background(), http.MethodGet, "/thing", nil, &out, Idempotent())

	require.NoError(t, err)
	assert.Equal(t, "recovered", out.Value)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestInvoke_NoRetryWithoutIdempotent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer srv.Close()

	c := New("flaky", endpoint(srv.URL))

	err := c.Invoke(context.Background(), http.MethodPost, "/thing", map[string]string{}, nil)

	require.Error(t, err)
	assert.Equal(t, ErrUnavailable, KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvoke_NoRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("broken", endpoint(srv.URL))

	err := c.Invoke(context.Background(), http.MethodGet, "/thing", nil, nil, Idempotent())

	require.Error(t, err)
	assert.Equal(t, ErrUnavailable, KindOf(err))
	// 非2xx响应说明请求已被处理，即便幂等也不重试
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetrievalClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		w.Write([]byte(`{"results":[{"resource_id":"r1","title":"SQL 入门","duration_min":90,"score":0.92}]}`))
	}))
	defer srv.Close()

	c := NewRetrievalClient(endpoint(srv.URL))

	results, err := c.Search(context.Background(), "sql", 10)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].ResourceID)
	assert.Equal(t, 90, results[0].DurationMin)
	assert.InDelta(t, 0.92, results[0].Score, 0.001)
}

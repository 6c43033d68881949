package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/util"
	"learnpath_backend/pkg/monitoring"
	"net"
	"net/http"
	"strings"
)

// ErrKind 下游调用错误类别
type ErrKind string

const (
	ErrTimeout     ErrKind = "timeout"
	ErrUnavailable ErrKind = "unavailable"
	ErrBadResponse ErrKind = "bad_response"
)

// Error 携带下游状态码和响应体的类型化错误
type Error struct {
	Kind    ErrKind
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: http %d: %s", e.Service, e.Kind, e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Service, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Service, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf 提取调用错误类别，非本包错误返回空串
func KindOf(err error) ErrKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// ServiceClient 对单个下游服务的统一调用入口。
// 截止时间取调用方上下文与服务级超时中较短者；上游取消会立即传导到在途请求。
// 只有显式声明幂等的调用才会在一次瞬时网络错误后重试，且最多一次。
type ServiceClient struct {
	name string
	cfg  config.ServiceEndpoint
	http *http.Client
}

func New(name string, cfg config.ServiceEndpoint) *ServiceClient {
	return &ServiceClient{
		name: name,
		cfg:  cfg,
		http: &http.Client{},
	}
}

type invokeOptions struct {
	idempotent bool
}

type InvokeOption func(*invokeOptions)

// Idempotent 标记此调用无副作用，允许对瞬时网络错误重试一次
func Idempotent() InvokeOption {
	return func(o *invokeOptions) {
		o.idempotent = true
	}
}

func (c *ServiceClient) Invoke(ctx context.Context, method, path string, payload interface{}, out interface{}, opts ...InvokeOption) error {
	var o invokeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return &Error{Kind: ErrBadResponse, Service: c.name, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	err := c.doOnce(ctx, method, path, body, out)
	if err == nil {
		monitoring.DownstreamCounter.WithLabelValues(c.name, "ok").Inc()
		return nil
	}

	// 幂等调用允许对瞬时传输错误重试一次；非2xx响应不重试
	if o.idempotent && isTransient(err) && ctx.Err() == nil {
		if retryErr := c.doOnce(ctx, method, path, body, out); retryErr == nil {
			monitoring.DownstreamCounter.WithLabelValues(c.name, "ok").Inc()
			return nil
		} else {
			err = retryErr
		}
	}

	monitoring.DownstreamCounter.WithLabelValues(c.name, string(kindOrUnavailable(err))).Inc()
	return err
}

func (c *ServiceClient) doOnce(ctx context.Context, method, path string, body []byte, out interface{}) error {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &Error{Kind: ErrBadResponse, Service: c.name, Err: err}
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if rid := util.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set(util.RequestIDHeader, rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := ErrBadResponse
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			kind = ErrUnavailable
		}
		return &Error{Kind: kind, Service: c.name, Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: ErrBadResponse, Service: c.name, Err: err}
	}
	return nil
}

func (c *ServiceClient) transportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrTimeout, Service: c.name, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: ErrTimeout, Service: c.name, Err: err}
	}
	return &Error{Kind: ErrUnavailable, Service: c.name, Err: err}
}

// isTransient 仅连接层失败视为瞬时，超时和非2xx不算
func isTransient(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == ErrUnavailable && ce.Status == 0
}

func kindOrUnavailable(err error) ErrKind {
	if k := KindOf(err); k != "" {
		return k
	}
	return ErrUnavailable
}

package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// RequestIDKey 关联ID在gin上下文和请求头中的键名
const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

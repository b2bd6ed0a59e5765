package stack

import "errors"

// Sentinel errors
var (
	// ErrStackClosed 协议栈已关闭
	ErrStackClosed = errors.New("stack: closed")

	// ErrSocketExists 套接字已注册
	ErrSocketExists = errors.New("stack: socket already registered")

	// ErrSocketNotFound 未找到套接字
	ErrSocketNotFound = errors.New("stack: no socket for address")

	// ErrConnectorStopped Connector 已停止
	ErrConnectorStopped = errors.New("stack: connector stopped")

	// ErrMalformedRequest 请求格式错误
	//
	// RequestListener 返回（或包装）此错误时，协议栈回复
	// 400 Bad Request 类响应；其他错误回复 500 Server Error。
	ErrMalformedRequest = errors.New("stack: malformed request")

	// ErrTransactionExists 事务 ID 冲突
	ErrTransactionExists = errors.New("stack: transaction already exists")

	// ErrSSLHandshakeMismatch 伪 SSL 握手应答不匹配
	ErrSSLHandshakeMismatch = errors.New("stack: ssl handshake mismatch")
)

// SendError 发送失败错误
type SendError struct {
	Dest  string
	Cause error
}

func (e *SendError) Error() string {
	return "stack: send to " + e.Dest + ": " + e.Cause.Error()
}

// Unwrap 解包错误
func (e *SendError) Unwrap() error {
	return e.Cause
}

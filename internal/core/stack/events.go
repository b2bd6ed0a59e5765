package stack

import (
	"github.com/pion/stun"

	"github.com/sclzwster/ice4j/pkg/types"
)

// ============================================================================
//                              消息事件
// ============================================================================

// MessageEvent 解码后的 STUN 消息事件
//
// 由 MessageProcessor 在解码成功后构造，携带消息本身
// 和原始消息的来源/本地地址元数据。
type MessageEvent struct {
	// Message 解码后的 STUN 消息
	Message *stun.Message

	// RemoteAddress 消息来源地址
	RemoteAddress types.TransportAddress

	// LocalAddress 收到消息的本地地址
	LocalAddress types.TransportAddress
}

// MessageEventHandler 消息事件处理能力
//
// 由协议栈实现；必须能被多个处理工作器并发安全地调用。
type MessageEventHandler interface {
	// HandleMessageEvent 处理一个解码后的消息事件
	HandleMessageEvent(ev *MessageEvent)
}

// ============================================================================
//                              请求分发
// ============================================================================

// RequestListener 入站请求处理能力
//
// ProcessRequest 返回（或包装）ErrMalformedRequest 时，协议栈回复
// 400 Bad Request 类响应，并以错误信息作为原因短语；
// 返回其他错误时回复 500 Server Error 类响应。
type RequestListener interface {
	ProcessRequest(ev *MessageEvent) error
}

// ResponseHandler 客户端事务的完成回调
//
// 每个事务恰好收到一次回调：收到响应或放弃重传。
// 回调通常运行在定时器或处理工作器的 goroutine 上，
// 不会运行在发起请求的调用者 goroutine 上。
type ResponseHandler interface {
	// ProcessResponse 收到与事务匹配的响应
	ProcessResponse(ev *MessageEvent, request *stun.Message)

	// ProcessTimeout 重传耗尽，事务放弃
	ProcessTimeout(request *stun.Message)
}

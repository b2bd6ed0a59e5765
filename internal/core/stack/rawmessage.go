package stack

import "github.com/sclzwster/ice4j/pkg/types"

// RawMessage 未解码的入站消息
//
// 值类型，从套接字读取循环经入站队列传递给 MessageProcessor，
// 解码后即被丢弃。
type RawMessage struct {
	// Bytes 原始字节（前 Length 字节有效）
	Bytes []byte

	// Length 有效字节数
	Length int

	// RemoteAddress 消息来源地址
	RemoteAddress types.TransportAddress

	// LocalAddress 收到消息的本地地址
	LocalAddress types.TransportAddress
}

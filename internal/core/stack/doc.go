// Package stack 实现 STUN 协议栈的网络访问层
//
// # 模块概述
//
// stack 是候选收集引擎面向网络的部分，包括：
//   - Socket: UDP/TCP 套接字的统一包装
//   - Connector: 持有单个套接字的网络访问点（发送 + 幂等关停）
//   - MessageProcessor: 入站消息的解码/分发工作器
//   - StunStack: 套接字路由、客户端事务管理和请求分发
//
// # 数据流
//
//	Connector 读取循环 → 入站队列 (chan RawMessage)
//	    → MessageProcessor 解码 (pion/stun)
//	    → StunStack.HandleMessageEvent
//	        ├── 响应 → 按事务 ID 路由到挂起的客户端事务
//	        ├── 请求 → RequestListener（两级错误：400 / 500）
//	        └── 指示 → 丢弃
//
// # 并发模型
//
//   - 每个 MessageProcessor 一个独立 goroutine，可多实例共享同一队列
//   - Connector 的发送可从任意 goroutine 调用
//   - 每个客户端事务的重传/超时逻辑运行在定时器 goroutine 上
//   - Connector 关停使用原子 CAS，任意并发调用下副作用只发生一次
//
// # 错误处理
//
//   - 解码失败：记录日志并丢弃该消息，工作器继续运行
//   - 处理器失败：recover 后记录日志，一个坏事件不会杀死工作器
//   - 发送 I/O 错误：原样传播给调用者，Connector 不做重试
package stack

import (
	"github.com/sclzwster/ice4j/pkg/lib/log"
)

var logger = log.Logger("core/stack")

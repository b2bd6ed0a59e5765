// Package ice 提供候选收集所依赖的组件模型
//
// # 概述
//
// ice 包维护 Agent → MediaStream → Component 三级结构，
// 收集器通过该链路获取共享的协议栈实例并枚举组件上的
// 本地候选。本包只覆盖候选收集所需的只读模型，
// 不包含连通性检查或优先级计算。
//
// # 结构
//
//   - Agent：持有共享的 StunStack，管理若干媒体流
//   - MediaStream：按名字标识的媒体流，管理若干组件
//   - Component：媒体流的一个组件，持有本地候选列表
//     和当前的组件套接字
//   - LocalCandidate：一个本地候选（host/srflx/relay），
//     以 (地址, 类型, 基础候选, 关联地址) 描述
//
// # 并发
//
// Component 的候选列表和套接字引用由内部互斥锁保护，
// 可被收集回调和调用方并发访问。
package ice

import (
	"github.com/sclzwster/ice4j/pkg/lib/log"
)

// 包级别日志实例
var logger = log.Logger("core/ice")

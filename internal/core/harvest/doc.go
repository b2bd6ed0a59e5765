// Package harvest 提供 STUN/TURN 候选收集器的实现
//
// # 概述
//
// 收集器对一个组件执行一轮收集：为每个传输协议匹配的主机候选
// 发起一次异步解析（STUN Binding 或 TURN Allocate），阻塞等待
// 全部解析结束，然后聚合成功的候选返回。
//
// # 收集流程
//
//  1. 枚举组件上与服务器传输协议匹配的主机候选
//  2. 为每个候选构造一次解析并发起事务（扇出）
//  3. 在条件变量上阻塞，直到在途集合清空（屏障）
//  4. 从完成集合聚合产出候选的解析，去重后返回
//
// # 簿记不变式
//
// 每个收集器维护两个互斥锁独立保护的集合：
//
//   - started：在途解析。解析在发起前先插入，任何等待者
//     看到的都是真实在途工作的超集
//   - completed：产出 ≥1 个候选的解析
//
// 一次解析任一时刻至多属于其中一个集合；完成回调先从
// started 移除，再条件性插入 completed，两处变更都提交后
// 才发出屏障通知。两把锁从不嵌套持有。
//
// # 部分失败
//
// 单个候选的失败（地址族不匹配、绑定失败、事务超时）只是
// 跳过，从不让整轮收集失败；空结果是合法返回值而非错误。
package harvest

import (
	"github.com/sclzwster/ice4j/pkg/lib/log"
)

// 包级别日志实例
var logger = log.Logger("core/harvest")

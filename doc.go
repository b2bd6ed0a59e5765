// Package ice4j 提供 NAT 穿透候选收集引擎
//
// # 概述
//
// ice4j 通过本地套接字向 STUN/TURN 服务器发起请求，为实时
// 通信节点发现公网可达的传输候选：
//
//   - 服务器反射候选（STUN Binding 发现的公网映射地址）
//   - 中继候选（TURN Allocate 分配的服务器中继地址）
//
// # 快速开始
//
//	agent, err := ice4j.NewAgent()
//	if err != nil {
//		return err
//	}
//	defer agent.Close()
//
//	stream := agent.NewMediaStream("audio")
//	component, err := stream.CreateComponent(local)
//	if err != nil {
//		return err
//	}
//
//	harvester, err := ice4j.NewStunCandidateHarvester(server)
//	if err != nil {
//		return err
//	}
//	for _, c := range harvester.Harvest(component) {
//		fmt.Println(c)
//	}
//
// Harvest 阻塞到该轮全部解析结束；单个候选的失败只是跳过，
// 空结果是合法返回值而非错误。
//
// # 包结构
//
//   - internal/core/stack：套接字生命周期、入站解码分发、客户端事务
//   - internal/core/harvest：STUN/TURN 收集器与解析
//   - internal/core/ice：Agent/MediaStream/Component 组件模型
//   - pkg/types：传输地址、候选类型、凭证等值类型
package ice4j

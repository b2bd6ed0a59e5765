// Package types 定义 ice4j 共享值类型
//
// # 模块概述
//
// types 提供候选收集引擎各层共享的不可变值类型：
//   - Transport / TransportAddress: 传输协议和传输地址
//   - CandidateType: 候选类型（host / srflx / prflx / relay）
//   - LongTermCredential: STUN 长期凭证
//
// 本包不依赖任何内部模块，处于依赖图的最底层。
//
// # 地址可达性
//
// TransportAddress.CanReach 判断两个地址是否属于同一地址族
// 并且能够互相通信（IPv4 ↔ IPv4，IPv6 ↔ IPv6，链路本地地址
// 只能与链路本地地址通信）。收集器用它在发起解析前过滤掉
// 与服务器地址族不兼容的本地候选。
//
// # 协议标准
//
//   - RFC 5389: STUN (Session Traversal Utilities for NAT)
//   - RFC 5766: TURN (Traversal Using Relays around NAT)
//   - RFC 5245: ICE (Interactive Connectivity Establishment)
package types

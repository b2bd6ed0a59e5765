package ice4j

import (
	"github.com/sclzwster/ice4j/internal/core/harvest"
	"github.com/sclzwster/ice4j/internal/core/ice"
	"github.com/sclzwster/ice4j/internal/core/stack"
	"github.com/sclzwster/ice4j/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "ice4j " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

// 组件模型
type (
	// Agent 候选收集代理，持有共享协议栈
	Agent = ice.Agent

	// MediaStream 按名字标识的媒体流
	MediaStream = ice.MediaStream

	// Component 媒体流的一个组件
	Component = ice.Component

	// LocalCandidate 本地传输候选
	LocalCandidate = ice.LocalCandidate
)

// 收集器
type (
	// Harvester 一轮候选收集的能力
	Harvester = harvest.Harvester

	// StunCandidateHarvester STUN 候选收集器
	StunCandidateHarvester = harvest.StunCandidateHarvester

	// TurnCandidateHarvester TURN 候选收集器
	TurnCandidateHarvester = harvest.TurnCandidateHarvester
)

// 值类型
type (
	// Transport 传输协议类型
	Transport = types.Transport

	// TransportAddress (IP, 端口, 传输协议) 值类型
	TransportAddress = types.TransportAddress

	// CandidateType 候选类型
	CandidateType = types.CandidateType

	// LongTermCredential TURN 长期凭证
	LongTermCredential = types.LongTermCredential
)

// 传输协议常量
const (
	TransportUDP = types.TransportUDP
	TransportTCP = types.TransportTCP
	TransportTLS = types.TransportTLS
)

// 候选类型常量
const (
	CandidateHost            = types.CandidateHost
	CandidateServerReflexive = types.CandidateServerReflexive
	CandidatePeerReflexive   = types.CandidatePeerReflexive
	CandidateRelayed         = types.CandidateRelayed
)

// TLS 封装的 TURN 传输协商用的握手常量
var (
	SSLClientHandshake = harvest.SSLClientHandshake
	SSLServerHandshake = harvest.SSLServerHandshake
)

// AgentOption 协议栈配置选项
type AgentOption = stack.Option

// 协议栈配置选项
var (
	// WithRTO 设置初始重传超时
	WithRTO = stack.WithRTO

	// WithMaxRetransmissions 设置最大重传次数
	WithMaxRetransmissions = stack.WithMaxRetransmissions

	// WithProcessorCount 设置消息处理工作器数量
	WithProcessorCount = stack.WithProcessorCount

	// WithQueueSize 设置入站消息队列容量
	WithQueueSize = stack.WithQueueSize
)

// HarvesterOption 收集器配置选项
type HarvesterOption = harvest.Option

// WithShortTermUsername 设置收集器的短期凭证用户名
var WithShortTermUsername = harvest.WithShortTermUsername

// ════════════════════════════════════════════════════════════════════════════
//                              构造入口
// ════════════════════════════════════════════════════════════════════════════

// NewAgent 创建候选收集代理及其协议栈
func NewAgent(opts ...AgentOption) (*Agent, error) {
	return ice.NewAgent(opts...)
}

// NewStunCandidateHarvester 创建 STUN 候选收集器
func NewStunCandidateHarvester(server TransportAddress, opts ...HarvesterOption) (*StunCandidateHarvester, error) {
	return harvest.NewStunCandidateHarvester(server, opts...)
}

// NewTurnCandidateHarvester 创建 TURN 候选收集器
func NewTurnCandidateHarvester(server TransportAddress, credential *LongTermCredential) *TurnCandidateHarvester {
	return harvest.NewTurnCandidateHarvester(server, credential)
}

// NewLongTermCredential 从字符串创建长期凭证
func NewLongTermCredential(username, password string) *LongTermCredential {
	return types.NewLongTermCredential(username, password)
}

// ParseTransportAddress 从 "host:port" 字符串解析传输地址
func ParseTransportAddress(hostport string, transport Transport) (TransportAddress, error) {
	return types.ParseTransportAddress(hostport, transport)
}

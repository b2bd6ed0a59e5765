package harvest

import (
	"sync"

	"github.com/pion/stun"

	"github.com/sclzwster/ice4j/internal/core/ice"
	"github.com/sclzwster/ice4j/internal/core/stack"
	"github.com/sclzwster/ice4j/pkg/types"
)

// ============================================================================
//                              CandidateHarvest
// ============================================================================

// CandidateHarvest 一个主机候选的一次解析
//
// 由策略构造；发起后异步运行自己的重传定时器，到达终态
// （成功或放弃）时恰好回调一次收集器的 completedResolving。
type CandidateHarvest interface {
	// HostCandidate 解析针对的主机候选
	HostCandidate() *ice.LocalCandidate

	// CandidateCount 已产出的候选数
	CandidateCount() int

	// Candidates 已产出候选的快照
	Candidates() []*ice.LocalCandidate

	// StartResolving 发送首个请求并武装重传定时器
	StartResolving() error

	// Close 释放解析资源，幂等
	Close()
}

// HarvestStrategy 解析策略
//
// 决定每个主机候选的解析方式（仅 Binding，或 Allocate + Binding）
// 以及 realm 质询到达时的长期凭证来源。
type HarvestStrategy interface {
	// CreateHarvest 为主机候选构造一次解析
	CreateHarvest(h *StunCandidateHarvester, host *ice.LocalCandidate) CandidateHarvest

	// CreateLongTermCredential 针对 realm 提供长期凭证，无凭证时返回 nil
	CreateLongTermCredential(realm string) *types.LongTermCredential
}

// ============================================================================
//                              解析公共状态
// ============================================================================

// harvestState 各解析实现共享的状态
type harvestState struct {
	harvester *StunCandidateHarvester
	host      *ice.LocalCandidate

	mu         sync.Mutex
	candidates []*ice.LocalCandidate

	completeOnce sync.Once
	closeOnce    sync.Once
}

// HostCandidate 解析针对的主机候选
func (s *harvestState) HostCandidate() *ice.LocalCandidate {
	return s.host
}

// CandidateCount 已产出的候选数
func (s *harvestState) CandidateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.candidates)
}

// Candidates 已产出候选的快照
func (s *harvestState) Candidates() []*ice.LocalCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ice.LocalCandidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// addCandidate 记录一个产出候选并挂到所属组件
func (s *harvestState) addCandidate(c *ice.LocalCandidate) {
	s.mu.Lock()
	s.candidates = append(s.candidates, c)
	s.mu.Unlock()

	s.host.Component().AddLocalCandidate(c)
}

// complete 向收集器通知终态，恰好一次
//
// h 为外层解析实例，作为簿记集合的成员传入。
func (s *harvestState) complete(h CandidateHarvest) {
	s.completeOnce.Do(func() {
		s.harvester.completedResolving(h)
	})
}

// stack 经由候选链路取得共享协议栈
func (s *harvestState) stack() *stack.StunStack {
	return s.host.Stack()
}

// ============================================================================
//                              StunCandidateHarvest
// ============================================================================

// StunCandidateHarvest 仅执行 Binding 交换的解析
//
// 成功响应中的映射地址若不同于主机候选地址，
// 包装为一个服务器反射候选。
type StunCandidateHarvest struct {
	harvestState
}

var _ CandidateHarvest = (*StunCandidateHarvest)(nil)
var _ stack.ResponseHandler = (*StunCandidateHarvest)(nil)

func newStunCandidateHarvest(h *StunCandidateHarvester, host *ice.LocalCandidate) *StunCandidateHarvest {
	return &StunCandidateHarvest{
		harvestState: harvestState{harvester: h, host: host},
	}
}

// StartResolving 发送 Binding 请求
func (h *StunCandidateHarvest) StartResolving() error {
	setters := []stun.Setter{stun.TransactionID, stun.BindingRequest}
	if u := h.harvester.ShortTermUsername(); u != "" {
		setters = append(setters, stun.NewUsername(u))
	}
	setters = append(setters, stun.Fingerprint)

	req, err := stun.Build(setters...)
	if err != nil {
		return err
	}
	return h.stack().SendRequest(req, h.host.Address(), h.harvester.Server(), h)
}

// ProcessResponse 处理与事务匹配的响应
func (h *StunCandidateHarvest) ProcessResponse(ev *stack.MessageEvent, _ *stun.Message) {
	if ev.Message.Type.Class == stun.ClassSuccessResponse {
		h.processSuccess(ev)
	} else {
		logger.Debug("Binding 收到错误响应",
			"candidate", h.host.String())
	}
	h.complete(h)
}

// processSuccess 从成功响应提取映射地址
//
// 优先 XOR-MAPPED-ADDRESS，旧服务器回退 MAPPED-ADDRESS。
func (h *StunCandidateHarvest) processSuccess(ev *stack.MessageEvent) {
	var xa stun.XORMappedAddress
	if err := xa.GetFrom(ev.Message); err != nil {
		var ma stun.MappedAddress
		if err := ma.GetFrom(ev.Message); err != nil {
			logger.Debug("响应缺少映射地址", "candidate", h.host.String())
			return
		}
		xa.IP, xa.Port = ma.IP, ma.Port
	}

	mapped := types.NewTransportAddress(xa.IP, xa.Port, h.host.Transport())
	if mapped.Equal(h.host.Address()) {
		// 无 NAT，映射地址即主机地址，不产出候选
		return
	}

	srflx := ice.NewServerReflexiveCandidate(mapped, h.host, h.harvester.Server())
	h.addCandidate(srflx)
	logger.Debug("发现服务器反射候选",
		"candidate", srflx.String())
}

// ProcessTimeout 重传耗尽，零候选收尾
func (h *StunCandidateHarvest) ProcessTimeout(_ *stun.Message) {
	logger.Debug("Binding 事务超时",
		"candidate", h.host.String(),
		"server", h.harvester.Server().String())
	h.complete(h)
}

// Close 释放解析资源，幂等
func (h *StunCandidateHarvest) Close() {
	h.closeOnce.Do(func() {})
}

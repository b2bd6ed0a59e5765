package harvest

import (
	"github.com/pion/stun"

	"github.com/sclzwster/ice4j/internal/core/ice"
	"github.com/sclzwster/ice4j/internal/core/stack"
	"github.com/sclzwster/ice4j/pkg/types"
)

// TLS 封装的 TURN 传输协商用的握手常量
//
// 与现网部署互操作，取值和长度必须逐字节一致。
var (
	SSLClientHandshake = stack.SSLClientHandshake
	SSLServerHandshake = stack.SSLServerHandshake
)

// ============================================================================
//                              TurnCandidateHarvester
// ============================================================================

// TurnCandidateHarvester TURN 候选收集器
//
// 在 Binding 之外对每个候选执行 Allocate 交换，
// 聚合中继候选；长期凭证在构造时固定，可以为空。
type TurnCandidateHarvester struct {
	*StunCandidateHarvester

	// credential 预置的长期凭证，realm 质询到达时使用
	credential *types.LongTermCredential
}

var _ Harvester = (*TurnCandidateHarvester)(nil)

// NewTurnCandidateHarvester 创建 TURN 候选收集器
//
// credential 为 nil 时质询无法应答，Allocate 以零候选收尾。
func NewTurnCandidateHarvester(server types.TransportAddress, credential *types.LongTermCredential) *TurnCandidateHarvester {
	return &TurnCandidateHarvester{
		StunCandidateHarvester: newHarvester(server, turnStrategy{credential: credential}),
		credential:             credential,
	}
}

// Credential 预置的长期凭证
func (h *TurnCandidateHarvester) Credential() *types.LongTermCredential {
	return h.credential
}

// turnStrategy Allocate + Binding 的解析策略
type turnStrategy struct {
	credential *types.LongTermCredential
}

var _ HarvestStrategy = turnStrategy{}

func (s turnStrategy) CreateHarvest(h *StunCandidateHarvester, host *ice.LocalCandidate) CandidateHarvest {
	return newTurnCandidateHarvest(h, host)
}

func (s turnStrategy) CreateLongTermCredential(string) *types.LongTermCredential {
	return s.credential
}

// ============================================================================
//                              TurnCandidateHarvest
// ============================================================================

// TurnCandidateHarvest 执行 Allocate 交换的解析
//
// 首个 Allocate 不带凭证；401 质询到达时用策略提供的长期
// 凭证重试一次。成功响应产出中继候选（XOR-RELAYED-ADDRESS），
// 映射地址不同于主机地址时额外产出服务器反射候选。
type TurnCandidateHarvest struct {
	harvestState

	// authAttempted 认证重试只发一次
	authAttempted bool
	realm         string
	nonce         string
}

var _ CandidateHarvest = (*TurnCandidateHarvest)(nil)
var _ stack.ResponseHandler = (*TurnCandidateHarvest)(nil)

func newTurnCandidateHarvest(h *StunCandidateHarvester, host *ice.LocalCandidate) *TurnCandidateHarvest {
	return &TurnCandidateHarvest{
		harvestState: harvestState{harvester: h, host: host},
	}
}

// StartResolving 发送首个 Allocate 请求
func (h *TurnCandidateHarvest) StartResolving() error {
	req, err := stun.Build(
		stun.TransactionID,
		stun.NewType(stun.MethodAllocate, stun.ClassRequest),
		RequestedTransport{Protocol: ProtocolUDP},
		stun.Fingerprint,
	)
	if err != nil {
		return err
	}
	return h.stack().SendRequest(req, h.host.Address(), h.harvester.Server(), h)
}

// ProcessResponse 处理与事务匹配的响应
func (h *TurnCandidateHarvest) ProcessResponse(ev *stack.MessageEvent, _ *stun.Message) {
	switch ev.Message.Type.Class {
	case stun.ClassSuccessResponse:
		h.processAllocateSuccess(ev)
	case stun.ClassErrorResponse:
		if h.processChallenge(ev.Message) {
			// 认证重试已发出，新事务继续在途
			return
		}
	}
	h.complete(h)
}

// processChallenge 应答 401 质询
//
// 返回 true 表示带认证的 Allocate 已重新发出。
func (h *TurnCandidateHarvest) processChallenge(msg *stun.Message) bool {
	h.mu.Lock()
	attempted := h.authAttempted
	h.mu.Unlock()
	if attempted {
		return false
	}

	var code stun.ErrorCodeAttribute
	if err := code.GetFrom(msg); err != nil || code.Code != stun.CodeUnauthorized {
		return false
	}

	var realm stun.Realm
	var nonce stun.Nonce
	if realm.GetFrom(msg) != nil || nonce.GetFrom(msg) != nil {
		return false
	}

	cred := h.harvester.strategy.CreateLongTermCredential(realm.String())
	if cred == nil {
		logger.Debug("Allocate 质询无法应答",
			"server", h.harvester.Server().String(),
			"realm", realm.String(),
			"err", ErrNoCredential)
		return false
	}

	req, err := stun.Build(
		stun.TransactionID,
		stun.NewType(stun.MethodAllocate, stun.ClassRequest),
		RequestedTransport{Protocol: ProtocolUDP},
		stun.NewUsername(string(cred.Username)),
		realm,
		nonce,
		stun.NewLongTermIntegrity(string(cred.Username), realm.String(), string(cred.Password)),
		stun.Fingerprint,
	)
	if err != nil {
		return false
	}

	h.mu.Lock()
	h.authAttempted = true
	h.realm = realm.String()
	h.nonce = nonce.String()
	h.mu.Unlock()

	if err := h.stack().SendRequest(req, h.host.Address(), h.harvester.Server(), h); err != nil {
		logger.Debug("认证 Allocate 发送失败", "err", err)
		return false
	}
	return true
}

// processAllocateSuccess 从成功响应提取中继地址和映射地址
func (h *TurnCandidateHarvest) processAllocateSuccess(ev *stack.MessageEvent) {
	var mapped stun.XORMappedAddress
	mappedOK := mapped.GetFrom(ev.Message) == nil
	var mappedAddr types.TransportAddress
	if mappedOK {
		mappedAddr = types.NewTransportAddress(mapped.IP, mapped.Port, h.host.Transport())
	}

	var relayed XORRelayedAddress
	if err := relayed.GetFrom(ev.Message); err == nil {
		relayAddr := types.NewTransportAddress(relayed.IP, relayed.Port, h.host.Transport())
		relay := ice.NewRelayedCandidate(relayAddr, h.host, mappedAddr)
		h.addCandidate(relay)

		var lifetime Lifetime
		if lifetime.GetFrom(ev.Message) == nil {
			logger.Debug("分配中继候选",
				"candidate", relay.String(),
				"lifetime", lifetime.Duration)
		} else {
			logger.Debug("分配中继候选", "candidate", relay.String())
		}
	}

	if mappedOK && !mappedAddr.Equal(h.host.Address()) {
		srflx := ice.NewServerReflexiveCandidate(mappedAddr, h.host, h.harvester.Server())
		h.addCandidate(srflx)
	}
}

// ProcessTimeout 重传耗尽，零候选收尾
func (h *TurnCandidateHarvest) ProcessTimeout(_ *stun.Message) {
	logger.Debug("Allocate 事务超时",
		"candidate", h.host.String(),
		"server", h.harvester.Server().String())
	h.complete(h)
}

// Close 释放解析资源，幂等
func (h *TurnCandidateHarvest) Close() {
	h.closeOnce.Do(func() {})
}

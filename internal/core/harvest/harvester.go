package harvest

import (
	"sync"

	"github.com/sclzwster/ice4j/internal/core/ice"
	"github.com/sclzwster/ice4j/internal/core/stack"
	"github.com/sclzwster/ice4j/pkg/types"
)

// ============================================================================
//                              Harvester
// ============================================================================

// Harvester 一轮候选收集的能力
type Harvester interface {
	// Harvest 对组件执行一轮收集，阻塞直到全部解析结束
	Harvest(component *ice.Component) []*ice.LocalCandidate

	// Server 收集所针对的服务器地址
	Server() types.TransportAddress
}

// ============================================================================
//                              StunCandidateHarvester
// ============================================================================

// StunCandidateHarvester STUN 候选收集器
//
// 对一个组件的每个传输协议匹配的主机候选发起 Binding 解析，
// 阻塞到全部解析结束后聚合服务器反射候选。
type StunCandidateHarvester struct {
	// server STUN 服务器地址
	server types.TransportAddress

	// username 短期凭证用户名，可为空
	username string

	// strategy 每个候选的解析方式与凭证来源
	strategy HarvestStrategy

	// started 在途解析集合，startedCond 在其上的屏障
	startedMu   sync.Mutex
	startedCond *sync.Cond
	started     map[CandidateHarvest]struct{}

	// completed 产出 ≥1 个候选的解析集合
	completedMu sync.Mutex
	completed   map[CandidateHarvest]struct{}
}

var _ Harvester = (*StunCandidateHarvester)(nil)

// NewStunCandidateHarvester 创建 STUN 候选收集器
func NewStunCandidateHarvester(server types.TransportAddress, opts ...Option) (*StunCandidateHarvester, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyOptions(opts...); err != nil {
		return nil, err
	}

	h := newHarvester(server, stunStrategy{})
	h.username = cfg.ShortTermUsername
	return h, nil
}

func newHarvester(server types.TransportAddress, strategy HarvestStrategy) *StunCandidateHarvester {
	h := &StunCandidateHarvester{
		server:    server,
		strategy:  strategy,
		started:   make(map[CandidateHarvest]struct{}),
		completed: make(map[CandidateHarvest]struct{}),
	}
	h.startedCond = sync.NewCond(&h.startedMu)
	return h
}

// Server 收集所针对的服务器地址
func (h *StunCandidateHarvester) Server() types.TransportAddress {
	return h.server
}

// ShortTermUsername 短期凭证用户名
func (h *StunCandidateHarvester) ShortTermUsername() string {
	return h.username
}

// setStrategy 替换解析策略（用于测试）
func (h *StunCandidateHarvester) setStrategy(s HarvestStrategy) {
	h.strategy = s
}

// ============================================================================
//                              收集一轮
// ============================================================================

// Harvest 对组件执行一轮收集
//
// 为每个传输协议匹配的主机候选发起解析（扇出），阻塞到在途
// 集合清空（屏障），聚合产出候选并去重返回。单个候选的失败
// 只是跳过；无匹配候选时立即返回空结果，不阻塞。
func (h *StunCandidateHarvester) Harvest(component *ice.Component) []*ice.LocalCandidate {
	stk := component.Stream().Agent().Stack()

	for _, hc := range component.LocalCandidates() {
		if hc.Type() != types.CandidateHost {
			continue
		}
		if hc.Transport() != h.server.Transport {
			continue
		}
		h.startResolvingCandidate(stk, hc)
	}

	h.waitForResolutionEnd()
	return h.collectCompleted()
}

// startResolvingCandidate 为一个主机候选发起解析
//
// 后置条件：解析要么在途且被 started 跟踪，要么不被任何
// 共享状态引用。
func (h *StunCandidateHarvester) startResolvingCandidate(stk *stack.StunStack, hc *ice.LocalCandidate) {
	if !hc.Address().CanReach(h.server) {
		// 地址族不匹配，静默跳过
		return
	}

	sendable := h.getHostCandidate(stk, hc)
	if sendable == nil {
		logger.Info("无法取得可发送的主机候选",
			"candidate", hc.String(),
			"err", ErrNoHostCandidate)
		return
	}

	hv := h.strategy.CreateHarvest(h, sendable)

	// 先插入再发起，等待者看到的永远是在途工作的超集；
	// 持锁跨越发起，完成回调在定时器 goroutine 上进行，
	// 不会在发起路径内同步触发
	h.startedMu.Lock()
	defer h.startedMu.Unlock()

	h.started[hv] = struct{}{}
	if err := hv.StartResolving(); err != nil {
		delete(h.started, hv)
		hv.Close()
		logger.Debug("解析发起失败",
			"candidate", sendable.String(),
			"err", err)
	}
}

// getHostCandidate 取得可发送形式的主机候选
//
// 面向连接的传输需要新的出站端点：同一本地端点不能既监听
// 又作为新连接的客户端。新端点注册进协议栈并重绑定组件
// 套接字。UDP 原样复用。失败时返回 nil。
func (h *StunCandidateHarvester) getHostCandidate(stk *stack.StunStack, hc *ice.LocalCandidate) *ice.LocalCandidate {
	if !hc.Transport().IsConnectionOriented() {
		return hc
	}

	sock, err := stack.DialTCP(h.server)
	if err != nil {
		logger.Debug("出站连接失败",
			"server", h.server.String(),
			"err", err)
		return nil
	}
	if err := stk.AddSocket(sock, h.server); err != nil {
		sock.Close()
		logger.Debug("出站套接字注册失败", "err", err)
		return nil
	}

	nc := ice.NewHostCandidate(sock.LocalAddress(), hc.Component())
	nc.SetSocket(sock)
	hc.Component().SetSocket(sock)
	return nc
}

// waitForResolutionEnd 阻塞到在途集合清空
//
// 条件变量循环容忍虚假唤醒；等待不可被提前取消，
// 总时长只由每个解析的超时放弃策略约束。
func (h *StunCandidateHarvester) waitForResolutionEnd() {
	h.startedMu.Lock()
	defer h.startedMu.Unlock()

	for len(h.started) > 0 {
		h.startedCond.Wait()
	}
}

// collectCompleted 聚合完成集合中的产出候选
//
// 零候选项在此时清理；聚合结果按结构相等去重，
// 完成集合清空，下一轮不会看到本轮的结果。
func (h *StunCandidateHarvester) collectCompleted() []*ice.LocalCandidate {
	h.completedMu.Lock()

	var agg []*ice.LocalCandidate
	for hv := range h.completed {
		if hv.CandidateCount() == 0 {
			continue
		}
		agg = append(agg, hv.Candidates()...)
	}
	h.completed = make(map[CandidateHarvest]struct{})
	h.completedMu.Unlock()

	var out []*ice.LocalCandidate
	for _, c := range agg {
		dup := false
		for _, seen := range out {
			if seen.Equal(c) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// completedResolving 解析到达终态的回调
//
// 由解析在定时器或处理工作器 goroutine 上恰好调用一次。
// 锁序：持 started 锁移除并判定是否通知，释放；持 completed
// 锁条件性插入，释放；两处变更都提交后才重新取 started 锁
// 发出通知。两把锁从不嵌套。
func (h *StunCandidateHarvester) completedResolving(hv CandidateHarvest) {
	h.startedMu.Lock()
	delete(h.started, hv)
	notify := len(h.started) == 0
	h.startedMu.Unlock()

	h.completedMu.Lock()
	if hv.CandidateCount() == 0 {
		delete(h.completed, hv)
	} else {
		h.completed[hv] = struct{}{}
	}
	h.completedMu.Unlock()

	if notify {
		h.startedMu.Lock()
		h.startedCond.Broadcast()
		h.startedMu.Unlock()
	}
}

// ============================================================================
//                              解析策略
// ============================================================================

// stunStrategy 仅 Binding 的解析策略
type stunStrategy struct{}

var _ HarvestStrategy = stunStrategy{}

func (stunStrategy) CreateHarvest(h *StunCandidateHarvester, host *ice.LocalCandidate) CandidateHarvest {
	return newStunCandidateHarvest(h, host)
}

func (stunStrategy) CreateLongTermCredential(string) *types.LongTermCredential {
	return nil
}

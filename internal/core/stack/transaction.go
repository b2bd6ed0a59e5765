package stack

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pion/stun"

	"github.com/sclzwster/ice4j/pkg/types"
)

// TransactionID 客户端事务标识
type TransactionID = [stun.TransactionIDSize]byte

// ============================================================================
//                              clientTransaction
// ============================================================================

// clientTransaction 客户端 STUN 事务
//
// 负责单个请求的发送与重传：初始 RTO 起步，每次重传后翻倍，
// 重传耗尽后放弃。终止（响应 / 放弃 / 取消）恰好发生一次，
// 完成回调运行在定时器或处理工作器的 goroutine 上。
type clientTransaction struct {
	stack     *StunStack
	request   *stun.Message
	connector *Connector

	// remoteAddress 请求目标地址
	remoteAddress types.TransportAddress

	handler ResponseHandler

	mu          sync.Mutex
	timer       *clock.Timer
	retransmits int
	rto         time.Duration
	terminated  bool
}

// newClientTransaction 创建客户端事务
func newClientTransaction(s *StunStack, request *stun.Message, connector *Connector, remote types.TransportAddress, handler ResponseHandler) *clientTransaction {
	return &clientTransaction{
		stack:         s,
		request:       request,
		connector:     connector,
		remoteAddress: remote,
		handler:       handler,
		rto:           s.config.RTO,
	}
}

// start 发送初始请求并武装重传定时器
func (t *clientTransaction) start() error {
	if err := t.connector.SendMessage(t.request.Raw, t.remoteAddress); err != nil {
		return err
	}

	t.mu.Lock()
	t.timer = t.stack.clk.AfterFunc(t.rto, t.onTimer)
	t.mu.Unlock()
	return nil
}

// onTimer 重传定时器到期
//
// 未达重传上限则重发并以翻倍的 RTO 重新武装定时器；
// 达到上限则放弃，从协议栈注销后通知 ProcessTimeout。
func (t *clientTransaction) onTimer() {
	t.mu.Lock()
	if t.terminated {
		t.mu.Unlock()
		return
	}

	if t.retransmits >= t.stack.config.MaxRetransmissions {
		t.terminated = true
		t.mu.Unlock()

		t.stack.removeTransaction(t.request.TransactionID)
		logger.Debug("事务重传耗尽，放弃",
			"remoteAddr", t.remoteAddress.String())
		t.handler.ProcessTimeout(t.request)
		return
	}

	t.retransmits++
	t.rto *= 2
	t.timer = t.stack.clk.AfterFunc(t.rto, t.onTimer)
	t.mu.Unlock()

	if err := t.connector.SendMessage(t.request.Raw, t.remoteAddress); err != nil {
		logger.Warn("重传发送失败",
			"remoteAddr", t.remoteAddress.String(),
			"err", err)
	}
}

// complete 收到匹配的响应，终止事务并通知回调
func (t *clientTransaction) complete(ev *MessageEvent) {
	t.mu.Lock()
	if t.terminated {
		t.mu.Unlock()
		return
	}
	t.terminated = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()

	t.handler.ProcessResponse(ev, t.request)
}

// cancel 取消事务，不触发任何回调
func (t *clientTransaction) cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.terminated {
		return
	}
	t.terminated = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

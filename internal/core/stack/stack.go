package stack

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/pion/stun"
	"go.uber.org/multierr"

	"github.com/sclzwster/ice4j/pkg/types"
)

// connectorKey 套接字路由键：(监听地址, 远端地址)
type connectorKey struct {
	listen string
	remote string
}

func makeKey(listen, remote types.TransportAddress) connectorKey {
	k := connectorKey{listen: listen.String()}
	if !remote.IsZero() {
		k.remote = remote.String()
	}
	return k
}

// ============================================================================
//                              StunStack
// ============================================================================

// StunStack STUN 协议栈
//
// 管理套接字路由（访问管理器角色）、客户端事务和入站消息分发。
// 一个协议栈实例可被多个收集器共享。
type StunStack struct {
	config *Config
	clk    clock.Clock

	// queue 共享入站消息队列
	queue      chan RawMessage
	processors []*MessageProcessor

	// connMu 保护 connectors
	connMu     sync.RWMutex
	connectors map[connectorKey]*Connector

	// txMu 保护 transactions
	txMu         sync.Mutex
	transactions map[TransactionID]*clientTransaction

	// listenerMu 保护 requestListener
	listenerMu      sync.RWMutex
	requestListener RequestListener

	closed atomic.Bool
}

// 确保实现接口
var (
	_ MessageEventHandler = (*StunStack)(nil)
	_ AccessManager       = (*StunStack)(nil)
)

// NewStunStack 创建协议栈并启动消息处理工作器
func NewStunStack(opts ...Option) (*StunStack, error) {
	config := DefaultConfig()
	if err := config.ApplyOptions(opts...); err != nil {
		return nil, err
	}

	s := &StunStack{
		config:       config,
		clk:          clock.New(),
		queue:        make(chan RawMessage, config.QueueSize),
		connectors:   make(map[connectorKey]*Connector),
		transactions: make(map[TransactionID]*clientTransaction),
	}

	for i := 0; i < config.ProcessorCount; i++ {
		p := NewMessageProcessor(s.queue, s)
		p.Start()
		s.processors = append(s.processors, p)
	}

	return s, nil
}

// SetClock 替换定时器时钟（用于测试）
//
// 必须在发起任何事务之前调用。
func (s *StunStack) SetClock(clk clock.Clock) {
	s.clk = clk
}

// ============================================================================
//                              套接字管理
// ============================================================================

// AddSocket 注册套接字并启动其读取循环
//
// remote 为面向连接传输的固定远端地址，UDP 传入零值。
func (s *StunStack) AddSocket(sock Socket, remote types.TransportAddress) error {
	if s.closed.Load() {
		return ErrStackClosed
	}

	key := makeKey(sock.LocalAddress(), remote)

	s.connMu.Lock()
	if _, ok := s.connectors[key]; ok {
		s.connMu.Unlock()
		return ErrSocketExists
	}
	c := NewConnector(sock, remote, s, s.queue)
	s.connectors[key] = c
	s.connMu.Unlock()

	c.Start()
	logger.Debug("注册套接字",
		"listenAddr", sock.LocalAddress().String())
	return nil
}

// RemoveSocket 删除 (监听地址, 远端地址) 的路由项并停止其 Connector
//
// 幂等：路由项不存在时直接返回。
func (s *StunStack) RemoveSocket(listenAddr, remoteAddr types.TransportAddress) {
	key := makeKey(listenAddr, remoteAddr)

	s.connMu.Lock()
	c, ok := s.connectors[key]
	if ok {
		delete(s.connectors, key)
	}
	s.connMu.Unlock()

	if ok {
		// Connector.Stop 的 CAS 保证不会与本调用来回递归
		if err := c.Stop(); err != nil {
			logger.Debug("套接字关闭失败",
				"listenAddr", listenAddr.String(),
				"err", err)
		}
	}
}

// getConnector 查找地址对应的 Connector
//
// 优先匹配 (监听地址, 远端地址)，其次匹配无固定远端的表项。
func (s *StunStack) getConnector(local, remote types.TransportAddress) (*Connector, error) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()

	if c, ok := s.connectors[makeKey(local, remote)]; ok {
		return c, nil
	}
	if c, ok := s.connectors[makeKey(local, types.TransportAddress{})]; ok {
		return c, nil
	}
	return nil, ErrSocketNotFound
}

// ============================================================================
//                              客户端事务
// ============================================================================

// SendRequest 发起客户端事务
//
// 通过 localAddr 对应的套接字向 remoteAddr 发送请求并武装重传，
// handler 在事务终止时恰好收到一次回调。请求消息必须已携带事务 ID。
func (s *StunStack) SendRequest(request *stun.Message, localAddr, remoteAddr types.TransportAddress, handler ResponseHandler) error {
	if s.closed.Load() {
		return ErrStackClosed
	}

	c, err := s.getConnector(localAddr, remoteAddr)
	if err != nil {
		return err
	}

	t := newClientTransaction(s, request, c, remoteAddr, handler)

	s.txMu.Lock()
	if _, ok := s.transactions[request.TransactionID]; ok {
		s.txMu.Unlock()
		return ErrTransactionExists
	}
	s.transactions[request.TransactionID] = t
	s.txMu.Unlock()

	if err := t.start(); err != nil {
		s.removeTransaction(request.TransactionID)
		return err
	}
	return nil
}

// removeTransaction 注销事务
func (s *StunStack) removeTransaction(id TransactionID) {
	s.txMu.Lock()
	delete(s.transactions, id)
	s.txMu.Unlock()
}

// takeTransaction 取出并注销事务
func (s *StunStack) takeTransaction(id TransactionID) *clientTransaction {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil
	}
	delete(s.transactions, id)
	return t
}

// ============================================================================
//                              响应发送
// ============================================================================

// SendResponse 通过 localAddr 对应的套接字发送响应
func (s *StunStack) SendResponse(response *stun.Message, localAddr, remoteAddr types.TransportAddress) error {
	c, err := s.getConnector(localAddr, remoteAddr)
	if err != nil {
		return err
	}
	return c.SendMessage(response.Raw, remoteAddr)
}

// SetRequestListener 设置入站请求处理器
func (s *StunStack) SetRequestListener(l RequestListener) {
	s.listenerMu.Lock()
	s.requestListener = l
	s.listenerMu.Unlock()
}

// ============================================================================
//                              消息分发
// ============================================================================

// HandleMessageEvent 处理解码后的消息事件
//
// 可被多个处理工作器并发调用：
//   - 响应按事务 ID 路由到挂起的客户端事务
//   - 请求交给 RequestListener，按两级错误约定回复
//   - 指示消息丢弃
func (s *StunStack) HandleMessageEvent(ev *MessageEvent) {
	switch ev.Message.Type.Class {
	case stun.ClassSuccessResponse, stun.ClassErrorResponse:
		t := s.takeTransaction(ev.Message.TransactionID)
		if t == nil {
			logger.Debug("响应没有匹配的事务，丢弃",
				"remoteAddr", ev.RemoteAddress.String())
			return
		}
		t.complete(ev)

	case stun.ClassRequest:
		s.handleRequest(ev)

	default:
		logger.Debug("丢弃指示消息",
			"remoteAddr", ev.RemoteAddress.String())
	}
}

// handleRequest 分发入站请求
//
// 两级错误约定：处理器返回 ErrMalformedRequest（或其包装）时
// 回复 400 Bad Request，以错误信息作为原因短语；
// 其他错误（包括处理器 panic）回复 500 Server Error。
func (s *StunStack) handleRequest(ev *MessageEvent) {
	s.listenerMu.RLock()
	listener := s.requestListener
	s.listenerMu.RUnlock()

	if listener == nil {
		logger.Debug("没有请求处理器，丢弃请求",
			"remoteAddr", ev.RemoteAddress.String())
		return
	}

	err := s.safeProcessRequest(listener, ev)
	if err == nil {
		return
	}

	code := stun.CodeServerError
	if errors.Is(err, ErrMalformedRequest) {
		code = stun.CodeBadRequest
	}

	resp, buildErr := stun.Build(
		stun.NewTransactionIDSetter(ev.Message.TransactionID),
		stun.NewType(ev.Message.Type.Method, stun.ClassErrorResponse),
		&stun.ErrorCodeAttribute{Code: code, Reason: []byte(err.Error())},
		stun.Fingerprint,
	)
	if buildErr != nil {
		logger.Error("构造错误响应失败", "err", buildErr)
		return
	}

	if sendErr := s.SendResponse(resp, ev.LocalAddress, ev.RemoteAddress); sendErr != nil {
		logger.Warn("错误响应发送失败",
			"remoteAddr", ev.RemoteAddress.String(),
			"err", sendErr)
	}
}

// safeProcessRequest 调用请求处理器并把 panic 转换为错误
func (s *StunStack) safeProcessRequest(listener RequestListener, ev *MessageEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("请求处理器故障", "panic", r)
			err = errors.New("stack: request processing failure")
		}
	}()
	return listener.ProcessRequest(ev)
}

// ============================================================================
//                              生命周期
// ============================================================================

// Close 关闭协议栈
//
// 取消所有挂起事务、停止消息处理工作器并关停全部 Connector。
// 幂等，重复调用返回 nil。
func (s *StunStack) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	// 取消挂起事务（不触发回调）
	s.txMu.Lock()
	for id, t := range s.transactions {
		t.cancel()
		delete(s.transactions, id)
	}
	s.txMu.Unlock()

	for _, p := range s.processors {
		p.Stop()
	}

	s.connMu.Lock()
	connectors := make([]*Connector, 0, len(s.connectors))
	for key, c := range s.connectors {
		connectors = append(connectors, c)
		delete(s.connectors, key)
	}
	s.connMu.Unlock()

	var err error
	for _, c := range connectors {
		err = multierr.Append(err, c.Stop())
	}
	return err
}

package ice

import (
	"sync"

	"github.com/sclzwster/ice4j/internal/core/stack"
	"github.com/sclzwster/ice4j/pkg/types"
)

// ============================================================================
//                              Agent
// ============================================================================

// Agent 候选收集代理
//
// 持有所有媒体流共享的协议栈实例。
type Agent struct {
	stk *stack.StunStack

	mu      sync.Mutex
	streams map[string]*MediaStream
}

// NewAgent 创建代理及其协议栈
func NewAgent(opts ...stack.Option) (*Agent, error) {
	stk, err := stack.NewStunStack(opts...)
	if err != nil {
		return nil, err
	}
	return &Agent{
		stk:     stk,
		streams: make(map[string]*MediaStream),
	}, nil
}

// Stack 共享协议栈
func (a *Agent) Stack() *stack.StunStack {
	return a.stk
}

// NewMediaStream 创建或返回同名媒体流
func (a *Agent) NewMediaStream(name string) *MediaStream {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.streams[name]; ok {
		return s
	}
	s := &MediaStream{agent: a, name: name}
	a.streams[name] = s
	return s
}

// Close 关闭协议栈及其全部套接字
func (a *Agent) Close() error {
	return a.stk.Close()
}

// ============================================================================
//                              MediaStream
// ============================================================================

// MediaStream 按名字标识的媒体流
type MediaStream struct {
	agent *Agent
	name  string

	mu         sync.Mutex
	components []*Component
}

// Agent 所属代理
func (s *MediaStream) Agent() *Agent {
	return s.agent
}

// Name 媒体流名字
func (s *MediaStream) Name() string {
	return s.name
}

// NewComponent 创建一个空组件
func (s *MediaStream) NewComponent() *Component {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Component{stream: s, id: len(s.components) + 1}
	s.components = append(s.components, c)
	return c
}

// CreateComponent 创建组件并绑定一个本地 UDP 套接字
//
// 套接字注册进协议栈，其地址包装为组件的首个主机候选。
func (s *MediaStream) CreateComponent(local types.TransportAddress) (*Component, error) {
	sock, err := stack.ListenUDP(local)
	if err != nil {
		return nil, err
	}
	if err := s.agent.Stack().AddSocket(sock, types.TransportAddress{}); err != nil {
		sock.Close()
		return nil, err
	}

	c := s.NewComponent()
	hc := NewHostCandidate(sock.LocalAddress(), c)
	hc.SetSocket(sock)
	c.AddLocalCandidate(hc)
	c.SetSocket(sock)

	logger.Debug("创建组件",
		"stream", s.name,
		"id", c.ID(),
		"listenAddr", sock.LocalAddress().String())
	return c, nil
}

// ============================================================================
//                              Component
// ============================================================================

// Component 媒体流的一个组件
//
// 候选列表可被收集回调并发追加。
type Component struct {
	stream *MediaStream
	id     int

	mu         sync.Mutex
	candidates []*LocalCandidate
	sock       stack.Socket
}

// Stream 所属媒体流
func (c *Component) Stream() *MediaStream {
	return c.stream
}

// ID 组件编号（流内唯一）
func (c *Component) ID() int {
	return c.id
}

// LocalCandidates 本地候选列表的快照
func (c *Component) LocalCandidates() []*LocalCandidate {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*LocalCandidate, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// AddLocalCandidate 追加本地候选
//
// 结构相等的候选只保留一份；返回是否实际加入。
func (c *Component) AddLocalCandidate(cand *LocalCandidate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.candidates {
		if existing.Equal(cand) {
			return false
		}
	}
	c.candidates = append(c.candidates, cand)
	return true
}

// Socket 组件当前的套接字
func (c *Component) Socket() stack.Socket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock
}

// SetSocket 重绑定组件套接字
//
// 面向连接传输建立新的出站端点后，收集器用新端点
// 替换组件原有的监听端点。
func (c *Component) SetSocket(sock stack.Socket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sock = sock
}

package ice

import (
	"github.com/sclzwster/ice4j/internal/core/stack"
	"github.com/sclzwster/ice4j/pkg/types"
)

// ============================================================================
//                              LocalCandidate - 本地候选
// ============================================================================

// LocalCandidate 本地传输候选
//
// 候选一经创建不可变；srflx/relay 候选通过 Base 指向派生它的
// 主机候选，RelatedAddress 记录发现它的服务器视角地址。
type LocalCandidate struct {
	// addr 候选的传输地址
	addr types.TransportAddress

	// typ 候选类型
	typ types.CandidateType

	// base 派生本候选的主机候选；host 候选指向自身
	base *LocalCandidate

	// related 关联地址（srflx 为映射来源，relay 为映射地址）
	related types.TransportAddress

	// component 所属组件
	component *Component

	// sock 候选绑定的套接字（仅 host 候选持有）
	sock stack.Socket
}

// NewHostCandidate 创建主机候选
func NewHostCandidate(addr types.TransportAddress, component *Component) *LocalCandidate {
	c := &LocalCandidate{
		addr:      addr,
		typ:       types.CandidateHost,
		component: component,
	}
	c.base = c
	return c
}

// NewServerReflexiveCandidate 创建服务器反射候选
//
// base 为发出 Binding 请求的主机候选，related 为 STUN 服务器地址。
func NewServerReflexiveCandidate(addr types.TransportAddress, base *LocalCandidate, related types.TransportAddress) *LocalCandidate {
	return &LocalCandidate{
		addr:      addr,
		typ:       types.CandidateServerReflexive,
		base:      base,
		related:   related,
		component: base.component,
	}
}

// NewRelayedCandidate 创建中继候选
//
// base 为发起 Allocate 的主机候选，related 为服务器反射地址。
func NewRelayedCandidate(addr types.TransportAddress, base *LocalCandidate, related types.TransportAddress) *LocalCandidate {
	return &LocalCandidate{
		addr:      addr,
		typ:       types.CandidateRelayed,
		base:      base,
		related:   related,
		component: base.component,
	}
}

// Address 候选的传输地址
func (c *LocalCandidate) Address() types.TransportAddress {
	return c.addr
}

// Type 候选类型
func (c *LocalCandidate) Type() types.CandidateType {
	return c.typ
}

// Base 派生本候选的主机候选
func (c *LocalCandidate) Base() *LocalCandidate {
	return c.base
}

// RelatedAddress 关联地址
func (c *LocalCandidate) RelatedAddress() types.TransportAddress {
	return c.related
}

// Component 所属组件
func (c *LocalCandidate) Component() *Component {
	return c.component
}

// Transport 候选地址的传输协议
func (c *LocalCandidate) Transport() types.Transport {
	return c.addr.Transport
}

// Socket 候选绑定的套接字，未绑定时为 nil
func (c *LocalCandidate) Socket() stack.Socket {
	return c.sock
}

// SetSocket 绑定套接字（用于测试和面向连接传输的重绑定）
func (c *LocalCandidate) SetSocket(sock stack.Socket) {
	c.sock = sock
}

// Stack 经由 component → stream → agent 链路取得共享协议栈
func (c *LocalCandidate) Stack() *stack.StunStack {
	return c.component.Stream().Agent().Stack()
}

// Equal 结构相等比较
//
// 以 (地址, 类型, 关联地址) 判定；用于聚合结果去重。
func (c *LocalCandidate) Equal(o *LocalCandidate) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.typ == o.typ && c.addr.Equal(o.addr) && c.related.Equal(o.related)
}

// String 返回 "type addr related=..." 形式的描述
func (c *LocalCandidate) String() string {
	s := c.typ.String() + " " + c.addr.String()
	if !c.related.IsZero() {
		s += " related=" + c.related.String()
	}
	return s
}

package harvest

import (
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/pion/stun"
)

// ============================================================================
//                              TURN 属性编解码
// ============================================================================

// ProtocolUDP REQUESTED-TRANSPORT 的 UDP 协议号
const ProtocolUDP byte = 17

// RequestedTransport REQUESTED-TRANSPORT 属性（RFC 5766 §14.7）
//
// 协议号占 1 字节，后随 3 字节 RFFU 零填充。
type RequestedTransport struct {
	Protocol byte
}

// AddTo 写入消息
func (r RequestedTransport) AddTo(m *stun.Message) error {
	m.Add(stun.AttrRequestedTransport, []byte{r.Protocol, 0, 0, 0})
	return nil
}

// GetFrom 从消息读取
func (r *RequestedTransport) GetFrom(m *stun.Message) error {
	v, err := m.Get(stun.AttrRequestedTransport)
	if err != nil {
		return err
	}
	if len(v) != 4 {
		return io.ErrUnexpectedEOF
	}
	r.Protocol = v[0]
	return nil
}

// XORRelayedAddress XOR-RELAYED-ADDRESS 属性（RFC 5766 §14.5）
//
// 编码规则与 XOR-MAPPED-ADDRESS 相同，仅属性类型不同。
type XORRelayedAddress struct {
	IP   net.IP
	Port int
}

// AddTo 写入消息
func (a XORRelayedAddress) AddTo(m *stun.Message) error {
	x := stun.XORMappedAddress{IP: a.IP, Port: a.Port}
	return x.AddToAs(m, stun.AttrXORRelayedAddress)
}

// GetFrom 从消息读取
func (a *XORRelayedAddress) GetFrom(m *stun.Message) error {
	var x stun.XORMappedAddress
	if err := x.GetFromAs(m, stun.AttrXORRelayedAddress); err != nil {
		return err
	}
	a.IP, a.Port = x.IP, x.Port
	return nil
}

// Lifetime LIFETIME 属性（RFC 5766 §14.2），秒数
type Lifetime struct {
	Duration time.Duration
}

// AddTo 写入消息
func (l Lifetime) AddTo(m *stun.Message) error {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, uint32(l.Duration.Seconds()))
	m.Add(stun.AttrLifetime, v)
	return nil
}

// GetFrom 从消息读取
func (l *Lifetime) GetFrom(m *stun.Message) error {
	v, err := m.Get(stun.AttrLifetime)
	if err != nil {
		return err
	}
	if len(v) != 4 {
		return io.ErrUnexpectedEOF
	}
	l.Duration = time.Duration(binary.BigEndian.Uint32(v)) * time.Second
	return nil
}

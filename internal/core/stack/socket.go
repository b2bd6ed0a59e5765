package stack

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"

	"github.com/sclzwster/ice4j/pkg/types"
)

// ============================================================================
//                              Socket - 套接字包装
// ============================================================================

// Socket UDP/TCP 套接字的统一包装
//
// 屏蔽无连接（UDP）和面向连接（TCP/TLS）传输之间的差异，
// Connector 通过它收发报文。
type Socket interface {
	// LocalAddress 本地绑定地址
	LocalAddress() types.TransportAddress

	// RemoteAddress 固定远端地址（面向连接的传输），无则返回零值
	RemoteAddress() types.TransportAddress

	// Send 向目标地址发送一条完整消息
	Send(b []byte, dst types.TransportAddress) error

	// Receive 读取一条完整消息，返回长度和来源地址
	Receive(b []byte) (int, types.TransportAddress, error)

	// Close 关闭套接字
	Close() error
}

// ============================================================================
//                              UDPSocket
// ============================================================================

// UDPSocket UDP 套接字包装
type UDPSocket struct {
	conn  net.PacketConn
	local types.TransportAddress
}

// 确保实现接口
var _ Socket = (*UDPSocket)(nil)

// NewUDPSocket 包装已有的 UDP 套接字
func NewUDPSocket(conn net.PacketConn) *UDPSocket {
	local := types.TransportAddress{Transport: types.TransportUDP}
	if ua, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		local.IP = ua.IP
		local.Port = ua.Port
	}
	return &UDPSocket{conn: conn, local: local}
}

// ListenUDP 绑定本地地址并创建 UDP 套接字
func ListenUDP(local types.TransportAddress) (*UDPSocket, error) {
	conn, err := net.ListenUDP("udp", local.UDPAddr())
	if err != nil {
		return nil, err
	}
	return NewUDPSocket(conn), nil
}

// LocalAddress 本地绑定地址
func (s *UDPSocket) LocalAddress() types.TransportAddress {
	return s.local
}

// RemoteAddress UDP 无固定远端，返回零值
func (s *UDPSocket) RemoteAddress() types.TransportAddress {
	return types.TransportAddress{}
}

// Send 向目标地址发送数据报
func (s *UDPSocket) Send(b []byte, dst types.TransportAddress) error {
	_, err := s.conn.WriteTo(b, dst.UDPAddr())
	return err
}

// Receive 读取一个数据报
func (s *UDPSocket) Receive(b []byte) (int, types.TransportAddress, error) {
	n, addr, err := s.conn.ReadFrom(b)
	if err != nil {
		return 0, types.TransportAddress{}, err
	}
	remote := types.TransportAddress{Transport: types.TransportUDP}
	if ua, ok := addr.(*net.UDPAddr); ok {
		remote.IP = ua.IP
		remote.Port = ua.Port
	}
	return n, remote, nil
}

// Close 关闭套接字
func (s *UDPSocket) Close() error {
	return s.conn.Close()
}

// ============================================================================
//                              TCPSocket
// ============================================================================

// TCPSocket TCP 套接字包装
//
// STUN over TCP（RFC 5389 §7.2.2）中消息直接在字节流上连续排列，
// 按 STUN 头部中的长度字段切分消息边界。
type TCPSocket struct {
	conn   net.Conn
	local  types.TransportAddress
	remote types.TransportAddress
}

var _ Socket = (*TCPSocket)(nil)

// stunHeaderSize STUN 消息头长度
const stunHeaderSize = 20

// NewTCPSocket 包装已建立的 TCP 连接
func NewTCPSocket(conn net.Conn, transport types.Transport) *TCPSocket {
	s := &TCPSocket{conn: conn}
	if ta, ok := conn.LocalAddr().(*net.TCPAddr); ok {
		s.local = types.NewTransportAddress(ta.IP, ta.Port, transport)
	}
	if ta, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		s.remote = types.NewTransportAddress(ta.IP, ta.Port, transport)
	}
	return s
}

// DialTCP 建立到服务器的出站 TCP 连接
//
// transport 为 TLS 时执行伪 SSL 握手（交换固定握手字节序列，
// 用于穿透只放行 SSL 流量的防火墙），应答与预期不符则连接失败。
func DialTCP(remote types.TransportAddress) (*TCPSocket, error) {
	conn, err := net.DialTCP("tcp", nil, remote.TCPAddr())
	if err != nil {
		return nil, err
	}

	if remote.Transport == types.TransportTLS {
		if err := pseudoSSLHandshake(conn); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return NewTCPSocket(conn, remote.Transport), nil
}

// pseudoSSLHandshake 执行客户端伪 SSL 握手
func pseudoSSLHandshake(conn net.Conn) error {
	if _, err := conn.Write(SSLClientHandshake); err != nil {
		return err
	}
	buf := make([]byte, len(SSLServerHandshake))
	if _, err := io.ReadFull(conn, buf); err != nil {
		return err
	}
	if !bytes.Equal(buf, SSLServerHandshake) {
		return ErrSSLHandshakeMismatch
	}
	return nil
}

// LocalAddress 本地绑定地址
func (s *TCPSocket) LocalAddress() types.TransportAddress {
	return s.local
}

// RemoteAddress 固定远端地址
func (s *TCPSocket) RemoteAddress() types.TransportAddress {
	return s.remote
}

// Send 发送一条完整消息（目标地址必须是连接的远端）
func (s *TCPSocket) Send(b []byte, _ types.TransportAddress) error {
	_, err := s.conn.Write(b)
	return err
}

// Receive 读取一条完整的 STUN 消息
func (s *TCPSocket) Receive(b []byte) (int, types.TransportAddress, error) {
	if _, err := io.ReadFull(s.conn, b[:stunHeaderSize]); err != nil {
		return 0, types.TransportAddress{}, err
	}
	// 头部第 2-3 字节为属性区长度
	attrLen := int(binary.BigEndian.Uint16(b[2:4]))
	total := stunHeaderSize + attrLen
	if total > len(b) {
		// 丢弃超长消息的剩余字节，保持流上的消息边界对齐
		if _, err := io.CopyN(io.Discard, s.conn, int64(attrLen)); err != nil {
			return 0, types.TransportAddress{}, err
		}
		return 0, types.TransportAddress{}, io.ErrShortBuffer
	}
	if _, err := io.ReadFull(s.conn, b[stunHeaderSize:total]); err != nil {
		return 0, types.TransportAddress{}, err
	}
	return total, s.remote, nil
}

// Close 关闭连接
func (s *TCPSocket) Close() error {
	return s.conn.Close()
}

// ============================================================================
//                              伪 SSL 握手常量
// ============================================================================

// SSLServerHandshake 服务器侧伪 SSL 握手应答
//
// 与既有部署互操作要求逐字节一致，不可修改。
var SSLServerHandshake = []byte{
	0x16, 0x03, 0x01, 0x00, 0x4a, 0x02, 0x00, 0x00, 0x46, 0x03, 0x01, 0x42,
	0x85, 0x45, 0xa7, 0x27, 0xa9, 0x5d, 0xa0, 0xb3, 0xc5, 0xe7, 0x53, 0xda,
	0x48, 0x2b, 0x3f, 0xc6, 0x5a, 0xca, 0x89, 0xc1, 0x58, 0x52, 0xa1, 0x78,
	0x3c, 0x5b, 0x17, 0x46, 0x00, 0x85, 0x3f, 0x20, 0x0e, 0xd3, 0x06, 0x72,
	0x5b, 0x5b, 0x1b, 0x5f, 0x15, 0xac, 0x13, 0xf9, 0x88, 0x53, 0x9d, 0x9b,
	0xe8, 0x3d, 0x7b, 0x0c, 0x30, 0x32, 0x6e, 0x38, 0x4d, 0xa2, 0x75, 0x57,
	0x41, 0x6c, 0x34, 0x5c, 0x00, 0x04, 0x00,
}

// SSLClientHandshake 客户端侧伪 SSL 握手请求
//
// 与既有部署互操作要求逐字节一致，不可修改。
var SSLClientHandshake = []byte{
	0x80, 0x46, 0x01, 0x03, 0x01, 0x00, 0x2d, 0x00, 0x00, 0x00, 0x10, 0x01,
	0x00, 0x80, 0x03, 0x00, 0x80, 0x07, 0x00, 0xc0, 0x06, 0x00, 0x40, 0x02,
	0x00, 0x80, 0x04, 0x00, 0x80, 0x00, 0x00, 0x04, 0x00, 0xfe, 0xff, 0x00,
	0x00, 0x0a, 0x00, 0xfe, 0xfe, 0x00, 0x00, 0x09, 0x00, 0x00, 0x64, 0x00,
	0x00, 0x62, 0x00, 0x00, 0x03, 0x00, 0x00, 0x06, 0x1f, 0x17, 0x0c, 0xa6,
	0x2f, 0x00, 0x78, 0xfc, 0x46, 0x55, 0x2e, 0xb1, 0x83, 0x39, 0xf1, 0xea,
}

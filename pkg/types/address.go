package types

import (
	"errors"
	"net"
	"strconv"
)

// ============================================================================
//                              Transport - 传输协议
// ============================================================================

// Transport 传输协议类型
type Transport int

const (
	// TransportUDP UDP 传输
	TransportUDP Transport = iota
	// TransportTCP TCP 传输
	TransportTCP
	// TransportTLS TLS 加密的 TCP 传输（TURN over TLS）
	TransportTLS
)

// String 返回传输协议的字符串表示
func (t Transport) String() string {
	switch t {
	case TransportUDP:
		return "udp"
	case TransportTCP:
		return "tcp"
	case TransportTLS:
		return "tls"
	default:
		return "unknown"
	}
}

// IsConnectionOriented 是否为面向连接的传输
//
// 面向连接的传输（TCP/TLS）在收集时需要为每个解析
// 建立独立的出站套接字，UDP 则复用原始套接字。
func (t Transport) IsConnectionOriented() bool {
	return t == TransportTCP || t == TransportTLS
}

// ParseTransport 解析传输协议字符串
func ParseTransport(s string) (Transport, error) {
	switch s {
	case "udp":
		return TransportUDP, nil
	case "tcp":
		return TransportTCP, nil
	case "tls":
		return TransportTLS, nil
	default:
		return TransportUDP, errors.New("types: unknown transport: " + s)
	}
}

// ============================================================================
//                              TransportAddress - 传输地址
// ============================================================================

// TransportAddress 传输地址，由 (IP, 端口, 传输协议) 组成
//
// 值类型，创建后不可变。
type TransportAddress struct {
	// IP 地址
	IP net.IP

	// Port 端口
	Port int

	// Transport 传输协议
	Transport Transport
}

// NewTransportAddress 创建传输地址
func NewTransportAddress(ip net.IP, port int, transport Transport) TransportAddress {
	return TransportAddress{IP: ip, Port: port, Transport: transport}
}

// ParseTransportAddress 从 "host:port" 字符串解析传输地址
func ParseTransportAddress(hostport string, transport Transport) (TransportAddress, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return TransportAddress{}, err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		// 允许主机名，解析为第一个地址
		addrs, err := net.LookupIP(host)
		if err != nil || len(addrs) == 0 {
			return TransportAddress{}, errors.New("types: cannot resolve host: " + host)
		}
		ip = addrs[0]
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return TransportAddress{}, err
	}
	return TransportAddress{IP: ip, Port: port, Transport: transport}, nil
}

// IsZero 是否为零值地址
func (a TransportAddress) IsZero() bool {
	return a.IP == nil && a.Port == 0
}

// IsIPv6 是否为 IPv6 地址
func (a TransportAddress) IsIPv6() bool {
	return a.IP != nil && a.IP.To4() == nil
}

// IsLinkLocal 是否为链路本地地址
func (a TransportAddress) IsLinkLocal() bool {
	return a.IP != nil && a.IP.IsLinkLocalUnicast()
}

// CanReach 判断本地址能否与目标地址通信
//
// 规则：
//   - 地址族必须一致（IPv4 ↔ IPv4，IPv6 ↔ IPv6）
//   - IPv6 链路本地地址只能与链路本地地址通信
func (a TransportAddress) CanReach(dst TransportAddress) bool {
	if a.IP == nil || dst.IP == nil {
		return false
	}
	if a.IsIPv6() != dst.IsIPv6() {
		return false
	}
	if a.IsIPv6() && a.IsLinkLocal() != dst.IsLinkLocal() {
		return false
	}
	return true
}

// Equal 结构相等比较
func (a TransportAddress) Equal(o TransportAddress) bool {
	return a.IP.Equal(o.IP) && a.Port == o.Port && a.Transport == o.Transport
}

// HostPort 返回 "host:port" 形式的字符串
func (a TransportAddress) HostPort() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
}

// String 返回 "host:port/transport" 形式的字符串
func (a TransportAddress) String() string {
	if a.IsZero() {
		return "<nil>"
	}
	return a.HostPort() + "/" + a.Transport.String()
}

// UDPAddr 转换为 *net.UDPAddr
func (a TransportAddress) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: a.IP, Port: a.Port}
}

// TCPAddr 转换为 *net.TCPAddr
func (a TransportAddress) TCPAddr() *net.TCPAddr {
	return &net.TCPAddr{IP: a.IP, Port: a.Port}
}

package types

import (
	"net"
	"testing"
)

// TestTransport_String 测试传输协议字符串表示
func TestTransport_String(t *testing.T) {
	cases := []struct {
		transport Transport
		want      string
	}{
		{TransportUDP, "udp"},
		{TransportTCP, "tcp"},
		{TransportTLS, "tls"},
		{Transport(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.transport.String(); got != c.want {
			t.Errorf("Transport.String() = %s, want %s", got, c.want)
		}
	}
}

// TestTransport_IsConnectionOriented 测试面向连接判断
func TestTransport_IsConnectionOriented(t *testing.T) {
	if TransportUDP.IsConnectionOriented() {
		t.Error("UDP should not be connection oriented")
	}
	if !TransportTCP.IsConnectionOriented() {
		t.Error("TCP should be connection oriented")
	}
	if !TransportTLS.IsConnectionOriented() {
		t.Error("TLS should be connection oriented")
	}
}

// TestTransportAddress_CanReach 测试地址可达性判断
func TestTransportAddress_CanReach(t *testing.T) {
	v4a := NewTransportAddress(net.ParseIP("192.168.1.10"), 5000, TransportUDP)
	v4b := NewTransportAddress(net.ParseIP("203.0.113.1"), 3478, TransportUDP)
	v6 := NewTransportAddress(net.ParseIP("2001:db8::1"), 3478, TransportUDP)
	v6ll := NewTransportAddress(net.ParseIP("fe80::1"), 3478, TransportUDP)

	cases := []struct {
		name string
		src  TransportAddress
		dst  TransportAddress
		want bool
	}{
		{"v4 to v4", v4a, v4b, true},
		{"v4 to v6", v4a, v6, false},
		{"v6 to v4", v6, v4a, false},
		{"v6 to v6", v6, v6, true},
		{"link-local to global v6", v6ll, v6, false},
		{"link-local to link-local", v6ll, v6ll, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.src.CanReach(c.dst); got != c.want {
				t.Errorf("CanReach() = %v, want %v", got, c.want)
			}
		})
	}

	t.Log("✅ 地址可达性判断正确")
}

// TestTransportAddress_Equal 测试结构相等比较
func TestTransportAddress_Equal(t *testing.T) {
	a := NewTransportAddress(net.ParseIP("10.0.0.1"), 1234, TransportUDP)
	b := NewTransportAddress(net.ParseIP("10.0.0.1"), 1234, TransportUDP)
	c := NewTransportAddress(net.ParseIP("10.0.0.1"), 1234, TransportTCP)
	d := NewTransportAddress(net.ParseIP("10.0.0.2"), 1234, TransportUDP)

	if !a.Equal(b) {
		t.Error("identical addresses should be equal")
	}
	if a.Equal(c) {
		t.Error("different transports should not be equal")
	}
	if a.Equal(d) {
		t.Error("different IPs should not be equal")
	}
}

// TestParseTransportAddress 测试地址解析
func TestParseTransportAddress(t *testing.T) {
	addr, err := ParseTransportAddress("203.0.113.5:3478", TransportUDP)
	if err != nil {
		t.Fatalf("ParseTransportAddress failed: %v", err)
	}
	if addr.IP.String() != "203.0.113.5" {
		t.Errorf("IP = %s, want 203.0.113.5", addr.IP)
	}
	if addr.Port != 3478 {
		t.Errorf("Port = %d, want 3478", addr.Port)
	}
	if addr.Transport != TransportUDP {
		t.Errorf("Transport = %s, want udp", addr.Transport)
	}

	if _, err := ParseTransportAddress("not-an-address", TransportUDP); err == nil {
		t.Error("expected error for malformed address")
	}
}

// TestTransportAddress_String 测试字符串表示
func TestTransportAddress_String(t *testing.T) {
	addr := NewTransportAddress(net.ParseIP("203.0.113.5"), 3478, TransportUDP)
	if got := addr.String(); got != "203.0.113.5:3478/udp" {
		t.Errorf("String() = %s, want 203.0.113.5:3478/udp", got)
	}

	var zero TransportAddress
	if got := zero.String(); got != "<nil>" {
		t.Errorf("zero String() = %s, want <nil>", got)
	}
}

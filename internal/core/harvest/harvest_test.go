package harvest

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pion/stun"
	"github.com/stretchr/testify/require"

	"github.com/sclzwster/ice4j/internal/core/ice"
	"github.com/sclzwster/ice4j/internal/core/stack"
	"github.com/sclzwster/ice4j/pkg/types"
)

// bindComponent 为组件挂一个绑定假套接字的主机候选
func bindComponent(t *testing.T, agent *ice.Agent, comp *ice.Component, ip string, port int) (*ice.LocalCandidate, *fakeSocket) {
	t.Helper()

	sock := newFakeSocket(ip, port)
	require.NoError(t, agent.Stack().AddSocket(sock, types.TransportAddress{}))

	hc := ice.NewHostCandidate(sock.LocalAddress(), comp)
	hc.SetSocket(sock)
	comp.AddLocalCandidate(hc)
	return hc, sock
}

func waitSent(t *testing.T, sock *fakeSocket, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return sock.sentCount() >= want
	}, 2*time.Second, 5*time.Millisecond)
}

func decodeRequest(t *testing.T, sock *fakeSocket, i int) *stun.Message {
	t.Helper()
	m := &stun.Message{Raw: sock.sentMessage(i)}
	require.NoError(t, m.Decode())
	return m
}

// TestStunHarvest_Pipeline 测试从 Binding 请求到反射候选的完整链路
func TestStunHarvest_Pipeline(t *testing.T) {
	agent, comp := newTestComponent(t)
	hc, sock := bindComponent(t, agent, comp, "10.0.0.5", 5000)

	h, err := NewStunCandidateHarvester(udpServerAddr())
	require.NoError(t, err)

	ch := runHarvest(h, comp)

	waitSent(t, sock, 1)
	req := decodeRequest(t, sock, 0)
	require.Equal(t, stun.MethodBinding, req.Type.Method)
	require.Equal(t, stun.ClassRequest, req.Type.Class)

	resp := stun.MustBuild(
		stun.NewTransactionIDSetter(req.TransactionID),
		stun.BindingSuccess,
		&stun.XORMappedAddress{IP: net.ParseIP("198.51.100.7"), Port: 61234},
		stun.Fingerprint,
	)
	sock.inject(resp.Raw, udpServerAddr())

	result := mustResult(t, ch)
	require.Len(t, result, 1)

	srflx := result[0]
	require.Equal(t, types.CandidateServerReflexive, srflx.Type())
	require.Equal(t, "198.51.100.7", srflx.Address().IP.String())
	require.Equal(t, 61234, srflx.Address().Port)
	require.Same(t, hc, srflx.Base())
	require.True(t, srflx.RelatedAddress().Equal(udpServerAddr()))

	// 产出候选同时挂到组件
	require.Len(t, comp.LocalCandidates(), 2)

	t.Log("✅ Binding 成功响应产出服务器反射候选")
}

// TestStunHarvest_MappedAddressFallback 测试旧服务器回退 MAPPED-ADDRESS
func TestStunHarvest_MappedAddressFallback(t *testing.T) {
	agent, comp := newTestComponent(t)
	_, sock := bindComponent(t, agent, comp, "10.0.0.5", 5000)

	h, err := NewStunCandidateHarvester(udpServerAddr())
	require.NoError(t, err)

	ch := runHarvest(h, comp)

	waitSent(t, sock, 1)
	req := decodeRequest(t, sock, 0)

	resp := stun.MustBuild(
		stun.NewTransactionIDSetter(req.TransactionID),
		stun.BindingSuccess,
		&stun.MappedAddress{IP: net.ParseIP("198.51.100.7"), Port: 61234},
	)
	sock.inject(resp.Raw, udpServerAddr())

	result := mustResult(t, ch)
	require.Len(t, result, 1)
	require.Equal(t, 61234, result[0].Address().Port)

	t.Log("✅ 缺少 XOR-MAPPED-ADDRESS 时回退 MAPPED-ADDRESS")
}

// TestStunHarvest_NoNATNoCandidate 测试映射地址等于主机地址时不产出候选
func TestStunHarvest_NoNATNoCandidate(t *testing.T) {
	agent, comp := newTestComponent(t)
	hc, sock := bindComponent(t, agent, comp, "10.0.0.5", 5000)

	h, err := NewStunCandidateHarvester(udpServerAddr())
	require.NoError(t, err)

	ch := runHarvest(h, comp)

	waitSent(t, sock, 1)
	req := decodeRequest(t, sock, 0)

	resp := stun.MustBuild(
		stun.NewTransactionIDSetter(req.TransactionID),
		stun.BindingSuccess,
		&stun.XORMappedAddress{IP: hc.Address().IP, Port: hc.Address().Port},
	)
	sock.inject(resp.Raw, udpServerAddr())

	result := mustResult(t, ch)
	require.Empty(t, result)

	t.Log("✅ 无 NAT 时不产出反射候选")
}

// TestStunHarvest_TransactionTimeout 测试事务放弃后收集返回空结果
func TestStunHarvest_TransactionTimeout(t *testing.T) {
	agent, comp := newTestComponent(t,
		stack.WithRTO(5*time.Millisecond),
		stack.WithMaxRetransmissions(1),
	)
	_, sock := bindComponent(t, agent, comp, "10.0.0.5", 5000)

	h, err := NewStunCandidateHarvester(udpServerAddr())
	require.NoError(t, err)

	result := mustResult(t, runHarvest(h, comp))
	require.Empty(t, result)

	// 原始发送加一次重传
	require.Equal(t, 2, sock.sentCount())

	t.Log("✅ 模拟超时的收集返回空结果而非错误")
}

// TestStunHarvest_ShortTermUsername 测试短期凭证用户名附加到请求
func TestStunHarvest_ShortTermUsername(t *testing.T) {
	agent, comp := newTestComponent(t)
	_, sock := bindComponent(t, agent, comp, "10.0.0.5", 5000)

	h, err := NewStunCandidateHarvester(udpServerAddr(), WithShortTermUsername("alice"))
	require.NoError(t, err)

	ch := runHarvest(h, comp)

	waitSent(t, sock, 1)
	req := decodeRequest(t, sock, 0)

	var username stun.Username
	require.NoError(t, username.GetFrom(req))
	require.Equal(t, "alice", username.String())

	resp := stun.MustBuild(
		stun.NewTransactionIDSetter(req.TransactionID),
		stun.BindingSuccess,
		&stun.XORMappedAddress{IP: net.ParseIP("198.51.100.7"), Port: 61234},
	)
	sock.inject(resp.Raw, udpServerAddr())
	mustResult(t, ch)
}

// TestStunHarvest_ErrorResponse 测试错误响应以零候选收尾
func TestStunHarvest_ErrorResponse(t *testing.T) {
	agent, comp := newTestComponent(t)
	_, sock := bindComponent(t, agent, comp, "10.0.0.5", 5000)

	h, err := NewStunCandidateHarvester(udpServerAddr())
	require.NoError(t, err)

	ch := runHarvest(h, comp)

	waitSent(t, sock, 1)
	req := decodeRequest(t, sock, 0)

	resp := stun.MustBuild(
		stun.NewTransactionIDSetter(req.TransactionID),
		stun.NewType(stun.MethodBinding, stun.ClassErrorResponse),
		&stun.ErrorCodeAttribute{Code: stun.CodeServerError},
	)
	sock.inject(resp.Raw, udpServerAddr())

	result := mustResult(t, ch)
	require.Empty(t, result)

	t.Log("✅ Binding 错误响应不产出候选也不阻塞收集")
}

// serveTCPBinding 在监听器上应答一次 TCP 上的 Binding 请求
func serveTCPBinding(t *testing.T, ln net.Listener, mapped types.TransportAddress) {
	t.Helper()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		hdr := make([]byte, 20)
		if _, err := io.ReadFull(conn, hdr); err != nil {
			return
		}
		body := make([]byte, binary.BigEndian.Uint16(hdr[2:4]))
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		req := &stun.Message{Raw: append(hdr, body...)}
		if err := req.Decode(); err != nil {
			return
		}

		resp := stun.MustBuild(
			stun.NewTransactionIDSetter(req.TransactionID),
			stun.BindingSuccess,
			&stun.XORMappedAddress{IP: mapped.IP, Port: mapped.Port},
			stun.Fingerprint,
		)
		conn.Write(resp.Raw)

		// 连接保持到收集返回，避免读取循环提前退出
		io.Copy(io.Discard, conn)
	}()
}

// TestStunHarvest_TCPTransport 测试面向连接传输的完整收集链路
//
// 收集器为 TCP 主机候选建立独立的出站端点，注册进协议栈并
// 重绑定组件套接字，经 STUN 长度成帧的字节流完成 Binding 交换。
func TestStunHarvest_TCPTransport(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ta := ln.Addr().(*net.TCPAddr)
	serverAddr := types.NewTransportAddress(ta.IP, ta.Port, types.TransportTCP)
	mapped := types.NewTransportAddress(net.ParseIP("198.51.100.9"), 4242, types.TransportTCP)
	serveTCPBinding(t, ln, mapped)

	_, comp := newTestComponent(t)
	hostCandidate(comp, "127.0.0.1", 6000, types.TransportTCP)

	h, err := NewStunCandidateHarvester(serverAddr)
	require.NoError(t, err)

	result := mustResult(t, runHarvest(h, comp))
	require.Len(t, result, 1)

	srflx := result[0]
	require.Equal(t, types.CandidateServerReflexive, srflx.Type())
	require.Equal(t, "198.51.100.9", srflx.Address().IP.String())
	require.Equal(t, 4242, srflx.Address().Port)
	require.True(t, srflx.RelatedAddress().Equal(serverAddr))

	// 基础候选是为出站连接新建的主机候选
	base := srflx.Base()
	require.Equal(t, types.CandidateHost, base.Type())
	require.Equal(t, types.TransportTCP, base.Transport())
	require.False(t, base.Address().IsZero())

	// 组件套接字已重绑定到新的出站端点
	require.NotNil(t, comp.Socket())
	require.True(t, comp.Socket().RemoteAddress().Equal(serverAddr))

	t.Log("✅ TCP 传输经独立出站端点完成收集")
}

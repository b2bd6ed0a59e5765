package harvest

import (
	"net"
	"sync"
	"testing"

	"github.com/sclzwster/ice4j/internal/core/ice"
	"github.com/sclzwster/ice4j/internal/core/stack"
	"github.com/sclzwster/ice4j/pkg/types"
)

// ============================================================================
//                              测试环境
// ============================================================================

func newTestComponent(t *testing.T, opts ...stack.Option) (*ice.Agent, *ice.Component) {
	t.Helper()

	agent, err := ice.NewAgent(opts...)
	if err != nil {
		t.Fatalf("创建代理失败: %v", err)
	}
	t.Cleanup(func() { agent.Close() })

	comp := agent.NewMediaStream("audio").NewComponent()
	return agent, comp
}

func hostCandidate(comp *ice.Component, ip string, port int, transport types.Transport) *ice.LocalCandidate {
	addr := types.NewTransportAddress(net.ParseIP(ip), port, transport)
	hc := ice.NewHostCandidate(addr, comp)
	comp.AddLocalCandidate(hc)
	return hc
}

func udpServerAddr() types.TransportAddress {
	return types.NewTransportAddress(net.ParseIP("203.0.113.10"), 3478, types.TransportUDP)
}

// ============================================================================
//                              可控解析
// ============================================================================

// fakeHarvest 由测试控制完成时机的解析
type fakeHarvest struct {
	harvester *StunCandidateHarvester
	host      *ice.LocalCandidate

	mu         sync.Mutex
	candidates []*ice.LocalCandidate
	started    bool
	closes     int

	startErr error
	once     sync.Once
}

func (f *fakeHarvest) HostCandidate() *ice.LocalCandidate { return f.host }

func (f *fakeHarvest) CandidateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.candidates)
}

func (f *fakeHarvest) Candidates() []*ice.LocalCandidate {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*ice.LocalCandidate, len(f.candidates))
	copy(out, f.candidates)
	return out
}

func (f *fakeHarvest) StartResolving() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return f.startErr
}

func (f *fakeHarvest) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
}

func (f *fakeHarvest) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// finish 以给定候选到达终态
func (f *fakeHarvest) finish(cands ...*ice.LocalCandidate) {
	f.mu.Lock()
	f.candidates = append(f.candidates, cands...)
	f.mu.Unlock()

	f.once.Do(func() {
		f.harvester.completedResolving(f)
	})
}

// fakeStrategy 产出 fakeHarvest 的解析策略
type fakeStrategy struct {
	mu       sync.Mutex
	harvests []*fakeHarvest

	// startErr 新解析的 StartResolving 返回值
	startErr error
}

var _ HarvestStrategy = (*fakeStrategy)(nil)

func (s *fakeStrategy) CreateHarvest(h *StunCandidateHarvester, host *ice.LocalCandidate) CandidateHarvest {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &fakeHarvest{harvester: h, host: host, startErr: s.startErr}
	s.harvests = append(s.harvests, f)
	return f
}

func (s *fakeStrategy) CreateLongTermCredential(string) *types.LongTermCredential {
	return nil
}

func (s *fakeStrategy) created() []*fakeHarvest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*fakeHarvest, len(s.harvests))
	copy(out, s.harvests)
	return out
}

// srflxFor 构造一个挂在 host 下的服务器反射候选
func srflxFor(host *ice.LocalCandidate, ip string, port int) *ice.LocalCandidate {
	addr := types.NewTransportAddress(net.ParseIP(ip), port, host.Transport())
	return ice.NewServerReflexiveCandidate(addr, host, udpServerAddr())
}

// ============================================================================
//                              假套接字
// ============================================================================

type fakePacket struct {
	b      []byte
	remote types.TransportAddress
}

// fakeSocket 注入式套接字，记录发出的报文
type fakeSocket struct {
	local  types.TransportAddress
	recvCh chan fakePacket
	done   chan struct{}

	closeOnce sync.Once

	mu   sync.Mutex
	sent [][]byte
}

var _ stack.Socket = (*fakeSocket)(nil)

func newFakeSocket(ip string, port int) *fakeSocket {
	return &fakeSocket{
		local:  types.NewTransportAddress(net.ParseIP(ip), port, types.TransportUDP),
		recvCh: make(chan fakePacket, 16),
		done:   make(chan struct{}),
	}
}

func (s *fakeSocket) LocalAddress() types.TransportAddress  { return s.local }
func (s *fakeSocket) RemoteAddress() types.TransportAddress { return types.TransportAddress{} }

func (s *fakeSocket) Send(b []byte, _ types.TransportAddress) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	s.mu.Lock()
	s.sent = append(s.sent, cp)
	s.mu.Unlock()
	return nil
}

func (s *fakeSocket) Receive(b []byte) (int, types.TransportAddress, error) {
	select {
	case <-s.done:
		return 0, types.TransportAddress{}, net.ErrClosed
	case p := <-s.recvCh:
		n := copy(b, p.b)
		return n, p.remote, nil
	}
}

func (s *fakeSocket) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *fakeSocket) inject(b []byte, remote types.TransportAddress) {
	s.recvCh <- fakePacket{b: b, remote: remote}
}

func (s *fakeSocket) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *fakeSocket) sentMessage(i int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[i]
}

package stack

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/pion/stun"

	"github.com/sclzwster/ice4j/pkg/types"
)

// fakePacket 注入给 fakeSocket 的入站报文
type fakePacket struct {
	b      []byte
	remote types.TransportAddress
}

// fakeSocket 受控套接字（用于测试）
type fakeSocket struct {
	local  types.TransportAddress
	remote types.TransportAddress

	mu      sync.Mutex
	sent    [][]byte
	sentDst []types.TransportAddress
	sendErr error

	recvCh    chan fakePacket
	done      chan struct{}
	closeOnce sync.Once
	closes    int32
}

var _ Socket = (*fakeSocket)(nil)

func newFakeSocket(ip string, port int) *fakeSocket {
	return &fakeSocket{
		local:  types.NewTransportAddress(net.ParseIP(ip), port, types.TransportUDP),
		recvCh: make(chan fakePacket, 16),
		done:   make(chan struct{}),
	}
}

func (s *fakeSocket) LocalAddress() types.TransportAddress {
	return s.local
}

func (s *fakeSocket) RemoteAddress() types.TransportAddress {
	return s.remote
}

func (s *fakeSocket) Send(b []byte, dst types.TransportAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, append([]byte(nil), b...))
	s.sentDst = append(s.sentDst, dst)
	return nil
}

func (s *fakeSocket) Receive(b []byte) (int, types.TransportAddress, error) {
	select {
	case <-s.done:
		return 0, types.TransportAddress{}, net.ErrClosed
	case pkt := <-s.recvCh:
		n := copy(b, pkt.b)
		return n, pkt.remote, nil
	}
}

func (s *fakeSocket) Close() error {
	atomic.AddInt32(&s.closes, 1)
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *fakeSocket) closeCount() int {
	return int(atomic.LoadInt32(&s.closes))
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

func (s *fakeSocket) setSendErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// inject 模拟收到一条入站报文
func (s *fakeSocket) inject(b []byte, remote types.TransportAddress) {
	s.recvCh <- fakePacket{b: b, remote: remote}
}

// fakeAccessManager 记录注销次数的访问管理器
type fakeAccessManager struct {
	removed int32
}

func (m *fakeAccessManager) RemoveSocket(_, _ types.TransportAddress) {
	atomic.AddInt32(&m.removed, 1)
}

func (m *fakeAccessManager) removedCount() int {
	return int(atomic.LoadInt32(&m.removed))
}

// recordingHandler 记录事务回调的 ResponseHandler
type recordingHandler struct {
	responses chan *MessageEvent
	timeouts  chan *stun.Message
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		responses: make(chan *MessageEvent, 8),
		timeouts:  make(chan *stun.Message, 8),
	}
}

func (h *recordingHandler) ProcessResponse(ev *MessageEvent, _ *stun.Message) {
	h.responses <- ev
}

func (h *recordingHandler) ProcessTimeout(request *stun.Message) {
	h.timeouts <- request
}

// recordingEventHandler 记录事件分发的 MessageEventHandler
type recordingEventHandler struct {
	events    chan *MessageEvent
	panicNext atomic.Bool
}

func newRecordingEventHandler() *recordingEventHandler {
	return &recordingEventHandler{events: make(chan *MessageEvent, 8)}
}

func (h *recordingEventHandler) HandleMessageEvent(ev *MessageEvent) {
	if h.panicNext.CompareAndSwap(true, false) {
		panic("handler failure")
	}
	h.events <- ev
}

// bindingRequestBytes 构造一条合法的 Binding 请求字节序列
func bindingRequestBytes() []byte {
	m := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	return m.Raw
}

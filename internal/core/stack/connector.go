package stack

import (
	"sync/atomic"

	"github.com/sclzwster/ice4j/pkg/types"
)

// receiveMTU 单条入站消息的最大长度
const receiveMTU = 1500

// AccessManager 套接字路由注销能力
//
// 由协议栈实现；RemoveSocket 幂等，每个 Connector 生命周期内
// 从 Stop() 恰好触发一次。
type AccessManager interface {
	RemoveSocket(listenAddr, remoteAddr types.TransportAddress)
}

// ============================================================================
//                              Connector
// ============================================================================

// Connector 网络访问点
//
// 持有且独占一个套接字：发送出站报文，并在读取循环中把入站
// 报文投入共享队列。Stop 通过原子 CAS 保证关停副作用
// （路由注销 + 套接字关闭）在任意并发调用下恰好执行一次。
type Connector struct {
	sock Socket

	// listenAddress 监听地址
	listenAddress types.TransportAddress

	// remoteAddress 固定远端地址（面向连接的传输），UDP 为零值
	remoteAddress types.TransportAddress

	accessManager AccessManager

	// queue 共享入站消息队列
	queue chan<- RawMessage

	// alive 存活标志
	alive atomic.Bool
}

// NewConnector 创建网络访问点
func NewConnector(sock Socket, remoteAddress types.TransportAddress, mgr AccessManager, queue chan<- RawMessage) *Connector {
	c := &Connector{
		sock:          sock,
		listenAddress: sock.LocalAddress(),
		remoteAddress: remoteAddress,
		accessManager: mgr,
		queue:         queue,
	}
	c.alive.Store(true)
	return c
}

// Start 启动套接字读取循环
func (c *Connector) Start() {
	go c.runReader()
}

// runReader 套接字读取循环
//
// 读到的报文投入共享队列；队列已满时丢弃并记录日志。
// 套接字错误在 Connector 已停止时静默退出，否则记录后退出。
func (c *Connector) runReader() {
	buf := make([]byte, receiveMTU)
	for {
		n, remote, err := c.sock.Receive(buf)
		if err != nil {
			if c.IsAlive() {
				logger.Warn("套接字读取失败，读取循环退出",
					"listenAddr", c.listenAddress.String(),
					"err", err)
			}
			return
		}

		msg := RawMessage{
			Bytes:         append([]byte(nil), buf[:n]...),
			Length:        n,
			RemoteAddress: remote,
			LocalAddress:  c.listenAddress,
		}

		select {
		case c.queue <- msg:
		default:
			logger.Warn("入站队列已满，丢弃消息",
				"listenAddr", c.listenAddress.String(),
				"remoteAddr", remote.String())
		}
	}
}

// Socket 返回底层套接字，供发送方复用
func (c *Connector) Socket() Socket {
	return c.sock
}

// IsAlive 返回存活状态，非阻塞
func (c *Connector) IsAlive() bool {
	return c.alive.Load()
}

// Stop 幂等关停
//
// 通过 CAS 竞争存活标志；只有赢得转换的调用者执行副作用：
// 先通知访问管理器删除 (监听地址, 远端地址) 路由项，再关闭套接字。
// 并发调用安全，其余调用者直接返回。
func (c *Connector) Stop() error {
	if c.alive.CompareAndSwap(true, false) {
		c.accessManager.RemoveSocket(c.listenAddress, c.remoteAddress)
		return c.sock.Close()
	}
	return nil
}

// SendMessage 通过本访问点的套接字发送消息
//
// I/O 错误原样传播给调用者，不做内部重试。
func (c *Connector) SendMessage(b []byte, dst types.TransportAddress) error {
	if !c.IsAlive() {
		return ErrConnectorStopped
	}
	if err := c.sock.Send(b, dst); err != nil {
		return &SendError{Dest: dst.String(), Cause: err}
	}
	return nil
}

// ListenAddress 监听地址
func (c *Connector) ListenAddress() types.TransportAddress {
	return c.listenAddress
}

// RemoteAddress 固定远端地址，UDP 为零值
func (c *Connector) RemoteAddress() types.TransportAddress {
	return c.remoteAddress
}

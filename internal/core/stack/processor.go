package stack

import (
	"sync"

	"github.com/pion/stun"
)

// ============================================================================
//                              MessageProcessor
// ============================================================================

// MessageProcessor 入站消息解码/分发工作器
//
// 从共享队列取出 RawMessage，解码为 STUN 消息后同步调用
// 事件处理器。解码失败和处理器失败都只影响当前这一条消息，
// 工作器本身继续运行。多个实例可以并发消费同一个队列。
type MessageProcessor struct {
	// queue 共享入站消息队列
	queue <-chan RawMessage

	// handler 解码事件的处理器
	handler MessageEventHandler

	// done 停止信号，在迭代之间观察
	done chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMessageProcessor 创建消息处理工作器
func NewMessageProcessor(queue <-chan RawMessage, handler MessageEventHandler) *MessageProcessor {
	return &MessageProcessor{
		queue:   queue,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start 启动工作器 goroutine
func (p *MessageProcessor) Start() {
	p.wg.Add(1)
	go p.run()
}

// run 工作循环
//
// 在队列上阻塞接收（可被停止信号打断，不做忙轮询）。
func (p *MessageProcessor) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			logger.Debug("消息处理工作器退出")
			return
		case raw := <-p.queue:
			p.process(raw)
		}
	}
}

// process 解码并分发一条消息
func (p *MessageProcessor) process(raw RawMessage) {
	msg := &stun.Message{Raw: raw.Bytes[:raw.Length]}
	if err := msg.Decode(); err != nil {
		// 放过这一条，继续处理下一条
		logger.Warn("STUN 消息解码失败，丢弃",
			"remoteAddr", raw.RemoteAddress.String(),
			"err", err)
		return
	}

	ev := &MessageEvent{
		Message:       msg,
		RemoteAddress: raw.RemoteAddress,
		LocalAddress:  raw.LocalAddress,
	}

	p.dispatch(ev)
}

// dispatch 同步调用处理器，隔离处理器故障
func (p *MessageProcessor) dispatch(ev *MessageEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("消息处理器故障，继续处理后续消息",
				"remoteAddr", ev.RemoteAddress.String(),
				"panic", r)
		}
	}()
	p.handler.HandleMessageEvent(ev)
}

// Stop 停止工作器
//
// 当前迭代完成后优雅退出；Stop 返回时工作器 goroutine 已结束。
func (p *MessageProcessor) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

package stack

import (
	"errors"
	"time"
)

// Config 协议栈配置
type Config struct {
	// RTO 初始重传超时（每次重传后翻倍）
	RTO time.Duration

	// MaxRetransmissions 最大重传次数（超过后事务放弃）
	MaxRetransmissions int

	// ProcessorCount 消息处理工作器数量
	ProcessorCount int

	// QueueSize 入站消息队列容量
	QueueSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		RTO:                400 * time.Millisecond,
		MaxRetransmissions: 3,
		ProcessorCount:     2,
		QueueSize:          512,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.RTO <= 0 {
		return errors.New("RTO must be positive")
	}

	if c.MaxRetransmissions < 0 {
		return errors.New("max retransmissions must be non-negative")
	}

	if c.ProcessorCount <= 0 {
		return errors.New("processor count must be positive")
	}

	if c.QueueSize <= 0 {
		return errors.New("queue size must be positive")
	}

	return nil
}

// Option 配置选项函数
type Option func(*Config) error

// WithRTO 设置初始重传超时
func WithRTO(rto time.Duration) Option {
	return func(c *Config) error {
		if rto <= 0 {
			return errors.New("RTO must be positive")
		}
		c.RTO = rto
		return nil
	}
}

// WithMaxRetransmissions 设置最大重传次数
func WithMaxRetransmissions(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return errors.New("max retransmissions must be non-negative")
		}
		c.MaxRetransmissions = n
		return nil
	}
}

// WithProcessorCount 设置消息处理工作器数量
func WithProcessorCount(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return errors.New("processor count must be positive")
		}
		c.ProcessorCount = n
		return nil
	}
}

// WithQueueSize 设置入站队列容量
func WithQueueSize(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return errors.New("queue size must be positive")
		}
		c.QueueSize = n
		return nil
	}
}

// ApplyOptions 应用配置选项
func (c *Config) ApplyOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return c.Validate()
}

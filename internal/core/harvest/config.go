package harvest

import "errors"

// ============================================================================
//                              收集器配置
// ============================================================================

// Config 收集器配置
type Config struct {
	// ShortTermUsername 短期凭证用户名
	//
	// 非空时附加到 Binding 请求的 USERNAME 属性。
	ShortTermUsername string
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{}
}

// Validate 校验配置
func (c *Config) Validate() error {
	return nil
}

// Option 配置选项
type Option func(*Config) error

// WithShortTermUsername 设置短期凭证用户名
func WithShortTermUsername(username string) Option {
	return func(c *Config) error {
		c.ShortTermUsername = username
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

// ============================================================================
//                              模块配置
// ============================================================================

// ModuleConfig 收集模块的装配配置
type ModuleConfig struct {
	// StunServers STUN 服务器地址列表（host:port，UDP）
	StunServers []string

	// TurnServers TURN 服务器地址列表（host:port，UDP）
	TurnServers []string

	// Username TURN 长期凭证用户名
	Username string

	// Password TURN 长期凭证密码
	Password string
}

// DefaultModuleConfig 返回默认模块配置
func DefaultModuleConfig() *ModuleConfig {
	return &ModuleConfig{
		StunServers: []string{
			"stun.l.google.com:19302",
			"stun1.l.google.com:19302",
		},
	}
}

// Validate 校验模块配置
func (c *ModuleConfig) Validate() error {
	if len(c.TurnServers) > 0 && c.Username == "" {
		return errors.New("harvest: turn servers require a username")
	}
	return nil
}

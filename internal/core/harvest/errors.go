package harvest

import "errors"

// 收集相关错误
var (
	// ErrNoCredential 服务器发出 realm 质询但策略未提供长期凭证
	ErrNoCredential = errors.New("harvest: no long-term credential available")

	// ErrNoHostCandidate 无法为面向连接的传输取得可发送的主机候选
	ErrNoHostCandidate = errors.New("harvest: cannot obtain sendable host candidate")
)

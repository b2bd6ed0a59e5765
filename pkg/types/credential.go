package types

// ============================================================================
//                              LongTermCredential - 长期凭证
// ============================================================================

// LongTermCredential STUN/TURN 长期凭证
//
// 长期凭证机制（RFC 5389 §10.2）通过 realm 质询建立，
// 凭证在多次事务间保持有效。
type LongTermCredential struct {
	// Username 用户名
	Username []byte

	// Password 密码
	Password []byte
}

// NewLongTermCredential 从字符串创建长期凭证
func NewLongTermCredential(username, password string) *LongTermCredential {
	return &LongTermCredential{
		Username: []byte(username),
		Password: []byte(password),
	}
}

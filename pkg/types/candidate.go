package types

// ============================================================================
//                              CandidateType - 候选类型
// ============================================================================

// CandidateType ICE 候选类型
type CandidateType int

const (
	// CandidateHost 主机候选（直接来自本地网络接口）
	CandidateHost CandidateType = iota
	// CandidateServerReflexive 服务器反射候选（STUN Binding 发现的公网映射地址）
	CandidateServerReflexive
	// CandidatePeerReflexive 对端反射候选
	CandidatePeerReflexive
	// CandidateRelayed 中继候选（TURN Allocate 分配的服务器中继地址）
	CandidateRelayed
)

// String 返回候选类型的字符串表示（RFC 5245 命名）
func (t CandidateType) String() string {
	switch t {
	case CandidateHost:
		return "host"
	case CandidateServerReflexive:
		return "srflx"
	case CandidatePeerReflexive:
		return "prflx"
	case CandidateRelayed:
		return "relay"
	default:
		return "unknown"
	}
}

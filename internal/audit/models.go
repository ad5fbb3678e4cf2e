package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	ActorID   string
	RequestID string
	Action    string
	Status    string
	Reason    string
	Device    string
}

// Break-glass ledger actions.
const (
	ActionBreakGlassCreated  = "break_glass_created"
	ActionBreakGlassApproved = "break_glass_approved"
	ActionBreakGlassDenied   = "break_glass_denied"
	ActionBreakGlassRevoked  = "break_glass_revoked"
	ActionBreakGlassExpired  = "break_glass_expired"
)

// Policy administration actions.
const (
	ActionPolicyUpserted = "field_policy_upserted"
)

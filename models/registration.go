package models

type Phase string

const (
	PhaseCollecting      Phase = "COLLECTING"
	PhaseSubmitting      Phase = "SUBMITTING"
	PhaseAwaitingPayment Phase = "AWAITING_PAYMENT"
	PhasePaying          Phase = "PAYING"
	PhaseSucceeded       Phase = "SUCCEEDED"
	PhaseExpired         Phase = "EXPIRED"
	PhaseFailed          Phase = "FAILED"
)

// Timed reports whether the payment countdown runs in this phase.
func (p Phase) Timed() bool {
	return p == PhaseAwaitingPayment || p == PhasePaying
}

func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseExpired || p == PhaseFailed
}

type Role string

const (
	RoleLeader Role = "LEADER"
	RoleMember Role = "MEMBER"
)

type TeammateField string

const (
	FieldPlayerID    TeammateField = "playerId"
	FieldDisplayName TeammateField = "displayName"
)

type TeammateEntry struct {
	LocalID     string `json:"localId"`
	PlayerID    string `json:"playerId" validate:"min=4"`
	DisplayName string `json:"displayName" validate:"min=3"`
	Role        Role   `json:"role"`
}

// TeamMember is the wire shape the join endpoint expects per roster entry.
type TeamMember struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

type JoinRequest struct {
	TournamentID string       `json:"tournamentId"`
	TeamName     string       `json:"teamName"`
	TeamMembers  []TeamMember `json:"teamMembers"`
}

// SessionSnapshot is the read-only view of a registration session handed to callers.
type SessionSnapshot struct {
	SessionID        string           `json:"sessionId"`
	TournamentID     string           `json:"tournamentId"`
	Format           Format           `json:"format"`
	TeamName         string           `json:"teamName"`
	Roster           []TeammateEntry  `json:"roster"`
	Phase            Phase            `json:"phase"`
	RemainingSeconds int              `json:"remainingSeconds"`
	RegistrationID   string           `json:"registrationId,omitempty"`
	Message          string           `json:"message,omitempty"`
	Ready            bool             `json:"ready"`
	Checkout         *CheckoutRequest `json:"checkout,omitempty"`
}

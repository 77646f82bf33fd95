package models

import (
	"time"
)

type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TournamentMirror is the locally cached, already normalized copy of a backend tournament.
type TournamentMirror struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	Title    string    `json:"title"`
	Game     string    `json:"game" gorm:"index"`
	Format   string    `json:"format"`
	Status   string    `json:"status" gorm:"index"`
	Summary  string    `json:"summary" gorm:"type:jsonb"`
	SyncedAt time.Time `json:"synced_at" gorm:"index"`
	Timestamps
}

// RegistrationRecord is the audit row written when a session reaches a terminal phase.
type RegistrationRecord struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	SessionID      string    `json:"session_id" gorm:"uniqueIndex"`
	UserID         string    `json:"user_id" gorm:"index"`
	TournamentID   string    `json:"tournament_id" gorm:"index"`
	RegistrationID string    `json:"registration_id"`
	TeamName       string    `json:"team_name"`
	RosterSize     int       `json:"roster_size"`
	Phase          string    `json:"phase"`
	Reason         string    `json:"reason"`
	OrderID        string    `json:"order_id"`
	PaymentID      string    `json:"payment_id"`
	AmountMinor    int64     `json:"amount_minor"`
	Currency       string    `json:"currency"`
	ResolvedAt     time.Time `json:"resolved_at"`
	Timestamps
}

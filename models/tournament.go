package models

import (
	"encoding/json"
	"time"
)

type Game string

const (
	GameBGMI       Game = "BGMI"
	GamePUBGMobile Game = "PUBG_MOBILE"
)

type Format string

const (
	FormatSolo  Format = "SOLO"
	FormatDuo   Format = "DUO"
	FormatSquad Format = "SQUAD"
)

type TournamentStatus string

const (
	StatusDraft            TournamentStatus = "DRAFT"
	StatusPendingApproval  TournamentStatus = "PENDING_APPROVAL"
	StatusApproved         TournamentStatus = "APPROVED"
	StatusRegistrationOpen TournamentStatus = "REGISTRATION_OPEN"
	StatusLive             TournamentStatus = "LIVE"
	StatusInProgress       TournamentStatus = "IN_PROGRESS"
	StatusCompleted        TournamentStatus = "COMPLETED"
	StatusCancelled        TournamentStatus = "CANCELLED"
)

// TournamentRecord is either a RawTournament or a TournamentSummary.
// Only this package can add implementations.
type TournamentRecord interface {
	tournamentRecord()
}

// RawTournament is a tournament exactly as the remote API returns it.
// Monetary fields are in minor units (paise). Alternative spellings are kept
// as separate fields and resolved in a fixed order during normalization.
type RawTournament struct {
	TournamentID string `json:"tournamentId"`
	MongoID      string `json:"_id"`
	ID           string `json:"id"`

	Title string `json:"title"`
	Name  string `json:"name"`

	Game   string `json:"game"`
	Format string `json:"format"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Map    string `json:"map"`

	EntryFee     float64 `json:"entryFee"`
	PrizePool    float64 `json:"prizePool"`
	PerKillPrize float64 `json:"perKillPrize"`
	FirstPrice   float64 `json:"firstPrice"`
	SecondPrice  float64 `json:"secondPrice"`
	ThirdPrice   float64 `json:"thirdPrice"`

	// Either a list of PrizeEntry or an object keyed by ordinal ("first", "second", ...).
	PrizeDistribution json.RawMessage `json:"prizeDistribution,omitempty"`

	CurrentParticipants int `json:"currentParticipants"`
	MaxParticipants     int `json:"maxParticipants"`

	StartTime           string `json:"startTime"`
	RegistrationEndTime string `json:"registrationEndTime"`

	Thumbnail    string `json:"thumbnail"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

func (RawTournament) tournamentRecord() {}

// TournamentSummary is the normalized tournament. Amounts are in major units.
type TournamentSummary struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	Game                Game             `json:"game"`
	Format              Format           `json:"format"`
	Status              TournamentStatus `json:"status"`
	Map                 string           `json:"map"`
	EntryFee            float64          `json:"entryFee"`
	PrizePool           float64          `json:"prizePool"`
	PerKillPrize        *float64         `json:"perKillPrize,omitempty"`
	FirstPrize          *float64         `json:"firstPrize,omitempty"`
	SecondPrize         *float64         `json:"secondPrize,omitempty"`
	ThirdPrize          *float64         `json:"thirdPrize,omitempty"`
	PrizeDistribution   []PrizeEntry     `json:"prizeDistribution"`
	CurrentParticipants int              `json:"currentParticipants"`
	MaxParticipants     int              `json:"maxParticipants"`
	StartTime           *time.Time       `json:"startTime,omitempty"`
	RegistrationEndTime *time.Time       `json:"registrationEndTime,omitempty"`
	Thumbnail           string           `json:"thumbnail"`
}

func (TournamentSummary) tournamentRecord() {}

type PrizeEntry struct {
	Position int     `json:"position"`
	Amount   float64 `json:"amount"`
	Label    string  `json:"label"`
}

// TournamentInput is the organizer payload for create and update.
// Amounts are entered in major units and forwarded as minor units.
type TournamentInput struct {
	Title               string  `json:"title" form:"title" validate:"required,min=3"`
	Game                Game    `json:"game" form:"game" validate:"required,oneof=BGMI PUBG_MOBILE"`
	Format              Format  `json:"format" form:"format" validate:"required,oneof=SOLO DUO SQUAD"`
	Map                 string  `json:"map" form:"map"`
	EntryFee            float64 `json:"entryFee" form:"entryFee" validate:"gte=0"`
	PrizePool           float64 `json:"prizePool" form:"prizePool" validate:"gte=0"`
	PerKillPrize        float64 `json:"perKillPrize" form:"perKillPrize" validate:"gte=0"`
	FirstPrize          float64 `json:"firstPrize" form:"firstPrize" validate:"gte=0"`
	SecondPrize         float64 `json:"secondPrize" form:"secondPrize" validate:"gte=0"`
	ThirdPrize          float64 `json:"thirdPrize" form:"thirdPrize" validate:"gte=0"`
	MaxParticipants     int     `json:"maxParticipants" form:"maxParticipants" validate:"gte=1"`
	StartTime           string  `json:"startTime" form:"startTime"`
	RegistrationEndTime string  `json:"registrationEndTime" form:"registrationEndTime"`
	Thumbnail           string  `json:"thumbnail,omitempty" form:"-"`
}

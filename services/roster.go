// services/roster.go
package services

import (
	"strings"

	"github.com/google/uuid"

	"tournament-join-service/models"
)

// RosterCap is the largest roster allowed for a format.
func RosterCap(format models.Format) int {
	switch format {
	case models.FormatSolo:
		return 1
	case models.FormatDuo:
		return 2
	}
	return 4
}

// Roster holds the team name and teammate entries of one registration session.
// It is not safe for concurrent use; the owning Controller serializes access.
type Roster struct {
	format   models.Format
	teamName string
	entries  []models.TeammateEntry
	newID    func() string
}

type rosterForm struct {
	TeamName string                 `json:"teamName" validate:"min=3"`
	Entries  []models.TeammateEntry `json:"roster" validate:"dive"`
}

// NewRoster starts with a single empty leader entry.
func NewRoster(format models.Format) *Roster {
	r := &Roster{format: format, newID: uuid.NewString}
	r.entries = []models.TeammateEntry{r.blank(models.RoleLeader)}
	return r
}

func (r *Roster) blank(role models.Role) models.TeammateEntry {
	return models.TeammateEntry{LocalID: r.newID(), Role: role}
}

func (r *Roster) Format() models.Format { return r.format }
func (r *Roster) TeamName() string      { return r.teamName }
func (r *Roster) Len() int              { return len(r.entries) }

func (r *Roster) SetTeamName(name string) {
	r.teamName = name
}

// AddTeammate appends an empty member entry. At the format cap it does nothing and returns false.
func (r *Roster) AddTeammate() bool {
	if len(r.entries) >= RosterCap(r.format) {
		return false
	}
	r.entries = append(r.entries, r.blank(models.RoleMember))
	return true
}

// RemoveTeammate removes the entry at index unless it is the last one left or index is out of range.
func (r *Roster) RemoveTeammate(index int) bool {
	if len(r.entries) <= 1 || index < 0 || index >= len(r.entries) {
		return false
	}
	r.entries = append(r.entries[:index], r.entries[index+1:]...)
	r.entries[0].Role = models.RoleLeader
	return true
}

func (r *Roster) SetTeammateField(index int, field models.TeammateField, value string) error {
	if index < 0 || index >= len(r.entries) {
		return NewValidationError("index", "no teammate at this position")
	}
	switch field {
	case models.FieldPlayerID:
		r.entries[index].PlayerID = value
	case models.FieldDisplayName:
		r.entries[index].DisplayName = value
	default:
		return NewValidationError("field", "must be playerId or displayName")
	}
	return nil
}

// SeedLeader fills the leader from the player's gaming profile, but only while the roster is
// still the untouched initial entry.
func (r *Roster) SeedLeader(playerID, displayName string) bool {
	if len(r.entries) != 1 {
		return false
	}
	lead := &r.entries[0]
	if lead.PlayerID != "" || lead.DisplayName != "" {
		return false
	}
	lead.PlayerID = playerID
	lead.DisplayName = displayName
	return true
}

// Complete reports whether the roster size fits the format: SOLO 1, DUO 2, SQUAD 1 to 4.
func (r *Roster) Complete() bool {
	n := len(r.entries)
	switch r.format {
	case models.FormatSolo:
		return n == 1
	case models.FormatDuo:
		return n == 2
	}
	return n >= 1 && n <= 4
}

// Validate checks the size rule and field lengths on trimmed values.
func (r *Roster) Validate() *ValidationError {
	form := rosterForm{
		TeamName: strings.TrimSpace(r.teamName),
		Entries:  make([]models.TeammateEntry, len(r.entries)),
	}
	for i, e := range r.entries {
		e.PlayerID = strings.TrimSpace(e.PlayerID)
		e.DisplayName = strings.TrimSpace(e.DisplayName)
		form.Entries[i] = e
	}

	verr := &ValidationError{}
	if err := validate.Struct(form); err != nil {
		verr = validationErrorFrom(err)
	}
	if !r.Complete() {
		verr.Add("roster", "roster size does not match the tournament format")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func (r *Roster) IsReady() bool {
	return r.Validate() == nil
}

func (r *Roster) Entries() []models.TeammateEntry {
	out := make([]models.TeammateEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Members is the trimmed wire form sent to the join endpoint.
func (r *Roster) Members() []models.TeamMember {
	out := make([]models.TeamMember, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, models.TeamMember{
			PlayerID:    strings.TrimSpace(e.PlayerID),
			DisplayName: strings.TrimSpace(e.DisplayName),
			Role:        e.Role,
		})
	}
	return out
}

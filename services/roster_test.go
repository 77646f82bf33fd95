package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-join-service/models"
)

func TestAddTeammateStopsAtFormatCap(t *testing.T) {
	tests := []struct {
		format models.Format
		cap    int
	}{
		{models.FormatSolo, 1},
		{models.FormatDuo, 2},
		{models.FormatSquad, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			r := NewRoster(tt.format)
			for i := 0; i < 10; i++ {
				r.AddTeammate()
				assert.LessOrEqual(t, r.Len(), tt.cap)
			}
			assert.Equal(t, tt.cap, r.Len())
			assert.False(t, r.AddTeammate(), "adding at the cap is a no-op")
			assert.Equal(t, tt.cap, r.Len())
		})
	}
}

func TestTeammateLocalIDsAreUnique(t *testing.T) {
	r := NewRoster(models.FormatSquad)
	r.AddTeammate()
	r.AddTeammate()
	r.AddTeammate()

	seen := map[string]bool{}
	for _, e := range r.Entries() {
		require.NotEmpty(t, e.LocalID)
		assert.False(t, seen[e.LocalID])
		seen[e.LocalID] = true
	}
}

func TestRemoveTeammateNeverEmptiesRoster(t *testing.T) {
	r := NewRoster(models.FormatDuo)
	assert.False(t, r.RemoveTeammate(0))
	assert.Equal(t, 1, r.Len())

	r.AddTeammate()
	assert.False(t, r.RemoveTeammate(5))
	assert.True(t, r.RemoveTeammate(1))
	assert.Equal(t, 1, r.Len())
}

func TestRemovingLeaderPromotesNextEntry(t *testing.T) {
	r := NewRoster(models.FormatSquad)
	r.AddTeammate()
	require.NoError(t, r.SetTeammateField(1, models.FieldPlayerID, "5550001"))

	assert.True(t, r.RemoveTeammate(0))

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "5550001", entries[0].PlayerID)
	assert.Equal(t, models.RoleLeader, entries[0].Role)
}

func TestSetTeammateFieldRejectsBadInput(t *testing.T) {
	r := NewRoster(models.FormatSolo)

	var verr *ValidationError
	assert.ErrorAs(t, r.SetTeammateField(3, models.FieldPlayerID, "x"), &verr)
	assert.ErrorAs(t, r.SetTeammateField(0, models.TeammateField("rank"), "x"), &verr)
}

func readySolo() *Roster {
	r := NewRoster(models.FormatSolo)
	r.SetTeamName("Phoenix")
	_ = r.SetTeammateField(0, models.FieldPlayerID, "51234567")
	_ = r.SetTeammateField(0, models.FieldDisplayName, "Ghost")
	return r
}

func TestIsReady(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Roster)
		ready  bool
	}{
		{"complete", func(*Roster) {}, true},
		{"team name two chars", func(r *Roster) { r.SetTeamName("Ph") }, false},
		{"team name three chars", func(r *Roster) { r.SetTeamName("Phx") }, true},
		{"team name padded", func(r *Roster) { r.SetTeamName("  Ph  ") }, false},
		{"player id three chars", func(r *Roster) { _ = r.SetTeammateField(0, models.FieldPlayerID, "123") }, false},
		{"player id four chars", func(r *Roster) { _ = r.SetTeammateField(0, models.FieldPlayerID, "1234") }, true},
		{"display name two chars", func(r *Roster) { _ = r.SetTeammateField(0, models.FieldDisplayName, "Gh") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := readySolo()
			tt.mutate(r)
			assert.Equal(t, tt.ready, r.IsReady())
		})
	}
}

func TestValidateReportsFields(t *testing.T) {
	r := NewRoster(models.FormatSquad)
	r.SetTeamName("ab")
	r.AddTeammate()

	verr := r.Validate()
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "teamName")
	assert.Contains(t, verr.Fields, "roster[0].playerId")
	assert.Contains(t, verr.Fields, "roster[1].displayName")
}

func TestDuoNeedsTwoPlayers(t *testing.T) {
	r := NewRoster(models.FormatDuo)
	r.SetTeamName("Phoenix")
	_ = r.SetTeammateField(0, models.FieldPlayerID, "51234567")
	_ = r.SetTeammateField(0, models.FieldDisplayName, "Ghost")
	assert.False(t, r.IsReady())

	r.AddTeammate()
	_ = r.SetTeammateField(1, models.FieldPlayerID, "59876543")
	_ = r.SetTeammateField(1, models.FieldDisplayName, "Viper")
	assert.True(t, r.IsReady())
}

func TestSquadAcceptsPartialRoster(t *testing.T) {
	r := NewRoster(models.FormatSquad)
	r.SetTeamName("Phoenix")
	_ = r.SetTeammateField(0, models.FieldPlayerID, "51234567")
	_ = r.SetTeammateField(0, models.FieldDisplayName, "Ghost")
	assert.True(t, r.IsReady())
}

func TestSeedLeaderOnlyOnUntouchedRoster(t *testing.T) {
	r := NewRoster(models.FormatSquad)
	assert.True(t, r.SeedLeader("51234567", "Ghost"))
	assert.Equal(t, "51234567", r.Entries()[0].PlayerID)

	edited := NewRoster(models.FormatSquad)
	_ = edited.SetTeammateField(0, models.FieldDisplayName, "Mine")
	assert.False(t, edited.SeedLeader("51234567", "Ghost"))
	assert.Equal(t, "Mine", edited.Entries()[0].DisplayName)

	grown := NewRoster(models.FormatSquad)
	grown.AddTeammate()
	assert.False(t, grown.SeedLeader("51234567", "Ghost"))
	assert.Empty(t, grown.Entries()[0].PlayerID)
}

func TestMembersAreTrimmed(t *testing.T) {
	r := NewRoster(models.FormatSolo)
	_ = r.SetTeammateField(0, models.FieldPlayerID, " 51234567 ")
	_ = r.SetTeammateField(0, models.FieldDisplayName, "Ghost\t")

	assert.Equal(t, []models.TeamMember{{PlayerID: "51234567", DisplayName: "Ghost", Role: models.RoleLeader}}, r.Members())
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-join-service/models"
)

type fakeLookup struct {
	summary models.TournamentSummary
	err     error
}

func (f fakeLookup) GetTournament(_ context.Context, id string) (models.TournamentSummary, error) {
	if f.err != nil {
		return models.TournamentSummary{}, f.err
	}
	s := f.summary
	s.ID = id
	return s, nil
}

func newManager(t *testing.T, profiles ProfileSource) (*SessionManager, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	backend := &fakeBackend{}
	m := NewSessionManager(SessionDeps{
		Join:   backend,
		Bridge: NewPaymentBridge(backend, nil, nil),
		Clock:  clock,
	}, fakeLookup{summary: models.TournamentSummary{Format: models.FormatDuo, Game: models.GamePUBGMobile}}, profiles, 30*time.Minute)
	t.Cleanup(m.CloseAll)
	return m, clock
}

func TestStartSeedsLeaderFromProfile(t *testing.T) {
	m, _ := newManager(t, &fakeAccounts{profile: models.GamingProfile{PUBGID: "5123", PUBGName: "Ghost"}})

	ctl, err := m.Start(context.Background(), testCred, "user-1", "X")

	require.NoError(t, err)
	snap := ctl.Snapshot()
	assert.Equal(t, models.PhaseCollecting, snap.Phase)
	assert.Equal(t, models.FormatDuo, snap.Format)
	assert.Equal(t, "5123", snap.Roster[0].PlayerID)
	assert.Equal(t, "Ghost", snap.Roster[0].DisplayName)
}

func TestStartWithoutProfileLeavesLeaderEmpty(t *testing.T) {
	m, _ := newManager(t, &fakeAccounts{profileErr: errors.New("timeout")})

	ctl, err := m.Start(context.Background(), testCred, "user-1", "X")

	require.NoError(t, err)
	assert.Empty(t, ctl.Snapshot().Roster[0].PlayerID)
}

func TestStartRequiresCredential(t *testing.T) {
	m, _ := newManager(t, nil)

	_, err := m.Start(context.Background(), Credential{}, "user-1", "X")

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Zero(t, m.Count())
}

func TestStartUnknownTournament(t *testing.T) {
	m := NewSessionManager(SessionDeps{}, fakeLookup{err: ErrTournamentNotFound}, nil, time.Minute)

	_, err := m.Start(context.Background(), testCred, "user-1", "missing")

	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestStartReplacesSessionForSameTournament(t *testing.T) {
	m, _ := newManager(t, nil)

	first, err := m.Start(context.Background(), testCred, "user-1", "X")
	require.NoError(t, err)
	other, err := m.Start(context.Background(), testCred, "user-1", "Y")
	require.NoError(t, err)
	second, err := m.Start(context.Background(), testCred, "user-1", "X")
	require.NoError(t, err)

	assert.True(t, first.Closed())
	assert.False(t, other.Closed())
	assert.Equal(t, 2, m.Count())
	_, err = m.Get("user-1", first.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get("user-1", second.ID())
	assert.NoError(t, err)
}

func TestStartKeepsSessionThatIsPaying(t *testing.T) {
	m, _ := newManager(t, nil)
	paying, err := m.Start(context.Background(), testCred, "user-1", "X")
	require.NoError(t, err)
	submitDuo(t, paying)

	_, err = m.Start(context.Background(), testCred, "user-1", "X")

	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.False(t, paying.Closed())
	assert.Equal(t, 1, m.Count())
	got, err := m.Get("user-1", paying.ID())
	require.NoError(t, err)
	assert.Equal(t, models.PhasePaying, got.Snapshot().Phase)

	// a different tournament is unaffected
	_, err = m.Start(context.Background(), testCred, "user-1", "Y")
	assert.NoError(t, err)
}

func TestGetChecksOwner(t *testing.T) {
	m, _ := newManager(t, nil)
	ctl, err := m.Start(context.Background(), testCred, "user-1", "X")
	require.NoError(t, err)

	_, err = m.Get("user-2", ctl.ID())
	assert.ErrorIs(t, err, ErrSessionForbidden)
	assert.ErrorIs(t, m.Close("user-2", ctl.ID()), ErrSessionForbidden)

	require.NoError(t, m.Close("user-1", ctl.ID()))
	assert.True(t, ctl.Closed())
	assert.Zero(t, m.Count())
}

func TestSweepClosesIdleSessions(t *testing.T) {
	m, clock := newManager(t, nil)
	idle, err := m.Start(context.Background(), testCred, "user-1", "X")
	require.NoError(t, err)

	paying, err := m.Start(context.Background(), testCred, "user-2", "X")
	require.NoError(t, err)
	submitDuo(t, paying)

	assert.Zero(t, m.Sweep(clock.Now().Add(time.Minute)))

	swept := m.Sweep(clock.Now().Add(31 * time.Minute))

	assert.Equal(t, 1, swept)
	assert.True(t, idle.Closed())
	assert.False(t, paying.Closed(), "sessions with a running countdown are kept")
	assert.Equal(t, 1, m.Count())
}

// submitDuo fills a two-player roster and moves ctl into PAYING.
func submitDuo(t *testing.T, ctl *Controller) {
	t.Helper()
	_, _ = ctl.SetTeamName("Phoenix")
	_, _ = ctl.AddTeammate()
	for i, id := range []string{"51234567", "52345678"} {
		_, _ = ctl.SetTeammateField(i, models.FieldPlayerID, id)
		_, _ = ctl.SetTeammateField(i, models.FieldDisplayName, "Player")
	}
	snap, err := ctl.Submit(context.Background(), testCred)
	require.NoError(t, err)
	require.Equal(t, models.PhasePaying, snap.Phase)
}

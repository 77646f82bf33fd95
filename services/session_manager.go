// services/session_manager.go
package services

import (
	"context"
	"sync"
	"time"

	"tournament-join-service/logger"
	"tournament-join-service/metrics"
	"tournament-join-service/models"
)

type TournamentLookup interface {
	GetTournament(ctx context.Context, id string) (models.TournamentSummary, error)
}

type ProfileSource interface {
	Profile(ctx context.Context, cred Credential) (models.GamingProfile, error)
}

// SessionManager keeps the live registration sessions, one per user and tournament.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Controller

	deps        SessionDeps
	tournaments TournamentLookup
	profiles    ProfileSource
	idleTTL     time.Duration
	log         *logger.Logger
	metrics     *metrics.Metrics
}

func NewSessionManager(deps SessionDeps, tournaments TournamentLookup, profiles ProfileSource, idleTTL time.Duration) *SessionManager {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &SessionManager{
		sessions:    make(map[string]*Controller),
		deps:        deps,
		tournaments: tournaments,
		profiles:    profiles,
		idleTTL:     idleTTL,
		log:         log,
		metrics:     deps.Metrics,
	}
}

// Start opens a new session for userID. Any open session of the same user for the same
// tournament is closed first, unless its payment countdown is running, in which case
// Start fails with ErrInvalidPhase. The leader is seeded from the gaming profile when it loads.
func (m *SessionManager) Start(ctx context.Context, cred Credential, userID, tournamentID string) (*Controller, error) {
	if !cred.Present() || userID == "" {
		return nil, ErrAuthenticationRequired
	}
	t, err := m.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	ctl := StartSession(m.deps, userID, SessionTarget{TournamentID: t.ID, Format: t.Format, Game: t.Game})

	if m.profiles != nil {
		if profile, err := m.profiles.Profile(ctx, cred); err != nil {
			m.log.Warn("[JOIN] profile unavailable, leader left empty", "user", userID, "error", err)
		} else if id, name := profile.PlayerFor(t.Game); id != "" || name != "" {
			_, _ = ctl.SeedLeader(id, name)
		}
	}

	m.mu.Lock()
	for _, existing := range m.sessions {
		if existing.UserID() == userID && existing.Snapshot().TournamentID == t.ID && existing.Snapshot().Phase.Timed() {
			m.mu.Unlock()
			ctl.Close()
			return nil, ErrInvalidPhase
		}
	}
	for id, existing := range m.sessions {
		if existing.UserID() == userID && existing.Snapshot().TournamentID == t.ID {
			existing.Close()
			delete(m.sessions, id)
		}
	}
	m.sessions[ctl.ID()] = ctl
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.log.Info("[JOIN] session started", "session", ctl.ID(), "user", userID, "tournament", t.ID, "format", t.Format)
	return ctl, nil
}

func (m *SessionManager) Get(userID, sessionID string) (*Controller, error) {
	m.mu.RLock()
	ctl, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if ctl.UserID() != userID {
		return nil, ErrSessionForbidden
	}
	return ctl, nil
}

// Close tears down a session and forgets it.
func (m *SessionManager) Close(userID, sessionID string) error {
	ctl, err := m.Get(userID, sessionID)
	if err != nil {
		return err
	}
	ctl.Close()
	m.mu.Lock()
	delete(m.sessions, sessionID)
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
	return nil
}

// Sweep closes sessions idle for longer than the TTL. Sessions with a running countdown are
// left alone until they resolve.
func (m *SessionManager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	swept := 0
	for id, ctl := range m.sessions {
		if ctl.Snapshot().Phase.Timed() {
			continue
		}
		if ctl.Closed() || now.Sub(ctl.LastActivity()) > m.idleTTL {
			ctl.Close()
			delete(m.sessions, id)
			swept++
		}
	}
	m.metrics.SetActiveSessions(len(m.sessions))
	if swept > 0 {
		m.log.Info("[JANITOR] closed idle sessions", "count", swept, "remaining", len(m.sessions))
	}
	return swept
}

func (m *SessionManager) Logger() *logger.Logger { return m.log }

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll is used on shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ctl := range m.sessions {
		ctl.Close()
		delete(m.sessions, id)
	}
	m.metrics.SetActiveSessions(0)
}

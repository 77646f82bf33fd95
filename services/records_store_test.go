package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tournament-join-service/events"
	"tournament-join-service/models"
)

type capturedStatement struct {
	sql  string
	vars []interface{}
}

// dryRunDB builds postgres SQL without a server and records every create and delete statement.
func dryRunDB(t *testing.T) (*gorm.DB, func() []capturedStatement) {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	var mu sync.Mutex
	var captured []capturedStatement
	record := func(tx *gorm.DB) {
		mu.Lock()
		defer mu.Unlock()
		captured = append(captured, capturedStatement{sql: tx.Statement.SQL.String(), vars: tx.Statement.Vars})
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", record))
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("test:capture_delete", record))

	return db, func() []capturedStatement {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedStatement(nil), captured...)
	}
}

type recordingPublisher struct {
	subjects []string
	events   []events.RegistrationEvent
}

func (p *recordingPublisher) PublishRegistration(_ context.Context, subject string, evt events.RegistrationEvent) error {
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestSessionResolvedUpsertsOnSessionID(t *testing.T) {
	db, statements := dryRunDB(t)
	publisher := &recordingPublisher{}
	store := NewRecordsStore(db, publisher, nil)
	resolvedAt := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	store.SessionResolved(SessionOutcome{
		Snapshot: models.SessionSnapshot{
			SessionID:      "s-1",
			TournamentID:   "X",
			TeamName:       "Phoenix",
			Phase:          models.PhaseSucceeded,
			RegistrationID: "R1",
			Roster:         make([]models.TeammateEntry, 4),
		},
		UserID:     "user-1",
		OrderID:    "order_1",
		PaymentID:  "pay_1",
		Amount:     49950,
		Currency:   "INR",
		ResolvedAt: resolvedAt,
	})

	got := statements()
	require.Len(t, got, 1)
	// a reopened session resolves again under the same id; the later outcome overwrites the row
	assert.Contains(t, got[0].sql, `INSERT INTO "registration_records"`)
	assert.Contains(t, got[0].sql, `ON CONFLICT ("session_id") DO UPDATE SET`)
	assert.Contains(t, got[0].sql, `"phase"="excluded"."phase"`)
	assert.Contains(t, got[0].sql, `"resolved_at"="excluded"."resolved_at"`)
	assert.NotContains(t, got[0].sql, `"user_id"="excluded"."user_id"`)
	assert.Contains(t, got[0].vars, "s-1")
	assert.Contains(t, got[0].vars, string(models.PhaseSucceeded))
	assert.Contains(t, got[0].vars, int64(49950))
	assert.Contains(t, got[0].vars, 4)

	require.Equal(t, []string{events.SubjectSucceeded}, publisher.subjects)
	assert.Equal(t, "R1", publisher.events[0].RegistrationID)
	assert.Equal(t, resolvedAt, publisher.events[0].OccurredAt)
}

func TestSessionResolvedSkipsEventForNonTerminalPhase(t *testing.T) {
	db, statements := dryRunDB(t)
	publisher := &recordingPublisher{}
	store := NewRecordsStore(db, publisher, nil)

	store.SessionResolved(SessionOutcome{Snapshot: models.SessionSnapshot{SessionID: "s-2", Phase: models.PhasePaying}})

	assert.Len(t, statements(), 1)
	assert.Empty(t, publisher.subjects)
}

func TestUpsertMirrorOnID(t *testing.T) {
	db, statements := dryRunDB(t)
	store := NewRecordsStore(db, nil, nil)
	syncedAt := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	err := store.UpsertMirror(context.Background(), []models.TournamentSummary{
		{ID: "a", Title: "Night Cup"},
		{Title: "no id"},
		{ID: "b", Title: "Day Cup"},
	}, syncedAt)

	require.NoError(t, err)
	got := statements()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].sql, `INSERT INTO "tournament_mirrors"`)
	assert.Contains(t, got[0].sql, `ON CONFLICT ("id") DO UPDATE SET`)
	assert.Contains(t, got[0].sql, `"synced_at"="excluded"."synced_at"`)
	assert.Contains(t, got[0].vars, "a")
	assert.Contains(t, got[0].vars, "b")
	assert.NotContains(t, got[0].vars, "no id")
	assert.Contains(t, got[0].vars, syncedAt)
}

func TestUpsertMirrorWithoutIDsWritesNothing(t *testing.T) {
	db, statements := dryRunDB(t)
	store := NewRecordsStore(db, nil, nil)

	require.NoError(t, store.UpsertMirror(context.Background(), []models.TournamentSummary{{Title: "no id"}}, time.Now()))
	require.NoError(t, store.UpsertMirror(context.Background(), nil, time.Now()))

	assert.Empty(t, statements())
}

func TestPruneMirrorDeletesRowsSyncedBefore(t *testing.T) {
	db, statements := dryRunDB(t)
	store := NewRecordsStore(db, nil, nil)
	cutoff := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	_, err := store.PruneMirror(context.Background(), cutoff)

	require.NoError(t, err)
	got := statements()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].sql, `DELETE FROM "tournament_mirrors" WHERE synced_at < $1`)
	assert.Equal(t, []interface{}{cutoff}, got[0].vars)
}

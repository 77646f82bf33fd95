// services/records_store.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tournament-join-service/events"
	"tournament-join-service/logger"
	"tournament-join-service/models"
)

// MirrorStore caches normalized tournaments locally.
type MirrorStore interface {
	UpsertMirror(ctx context.Context, summaries []models.TournamentSummary, syncedAt time.Time) error
	ListMirror(ctx context.Context) ([]models.TournamentSummary, time.Time, error)
}

// RecordsStore persists the tournament mirror and registration outcomes, and publishes
// an event for every outcome.
type RecordsStore struct {
	DB        *gorm.DB
	publisher events.Publisher
	log       *logger.Logger
	timeout   time.Duration
}

func NewRecordsStore(db *gorm.DB, publisher events.Publisher, log *logger.Logger) *RecordsStore {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RecordsStore{DB: db, publisher: publisher, log: log, timeout: 10 * time.Second}
}

func (s *RecordsStore) Migrate() error {
	return s.DB.AutoMigrate(&models.TournamentMirror{}, &models.RegistrationRecord{})
}

// SessionResolved implements SessionObserver.
func (s *RecordsStore) SessionResolved(out SessionOutcome) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	snap := out.Snapshot
	rec := models.RegistrationRecord{
		ID:             uuid.NewString(),
		SessionID:      snap.SessionID,
		UserID:         out.UserID,
		TournamentID:   snap.TournamentID,
		RegistrationID: snap.RegistrationID,
		TeamName:       snap.TeamName,
		RosterSize:     len(snap.Roster),
		Phase:          string(snap.Phase),
		Reason:         snap.Message,
		OrderID:        out.OrderID,
		PaymentID:      out.PaymentID,
		AmountMinor:    out.Amount,
		Currency:       out.Currency,
		ResolvedAt:     out.ResolvedAt,
	}

	// A reopened session can resolve more than once; keep the latest outcome.
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"registration_id", "team_name", "roster_size", "phase", "reason",
			"order_id", "payment_id", "amount_minor", "currency", "resolved_at", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		s.log.Error("[RECORDS] failed to store registration outcome", "session", snap.SessionID, "error", err)
	}

	subject := events.SubjectForPhase(string(snap.Phase))
	if subject == "" {
		return
	}
	evt := events.RegistrationEvent{
		SessionID:      snap.SessionID,
		UserID:         out.UserID,
		TournamentID:   snap.TournamentID,
		RegistrationID: snap.RegistrationID,
		TeamName:       snap.TeamName,
		Phase:          string(snap.Phase),
		Reason:         snap.Message,
		OrderID:        out.OrderID,
		PaymentID:      out.PaymentID,
		AmountMinor:    out.Amount,
		OccurredAt:     out.ResolvedAt,
	}
	if err := s.publisher.PublishRegistration(ctx, subject, evt); err != nil {
		s.log.Warn("[EVENTS] failed to publish registration event", "subject", subject, "error", err)
	}
}

func (s *RecordsStore) RecordsForUser(ctx context.Context, userID string) ([]models.RegistrationRecord, error) {
	var out []models.RegistrationRecord
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("resolved_at DESC").
		Limit(100).
		Find(&out).Error
	return out, err
}

func (s *RecordsStore) UpsertMirror(ctx context.Context, summaries []models.TournamentSummary, syncedAt time.Time) error {
	if len(summaries) == 0 {
		return nil
	}
	rows := make([]models.TournamentMirror, 0, len(summaries))
	for _, t := range summaries {
		if t.ID == "" {
			continue
		}
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode tournament %s: %w", t.ID, err)
		}
		rows = append(rows, models.TournamentMirror{
			ID:       t.ID,
			Title:    t.Title,
			Game:     string(t.Game),
			Format:   string(t.Format),
			Status:   string(t.Status),
			Summary:  string(payload),
			SyncedAt: syncedAt,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "game", "format", "status", "summary", "synced_at", "updated_at"}),
	}).Create(&rows).Error
}

// ListMirror returns the mirrored tournaments and the oldest sync time among them.
func (s *RecordsStore) ListMirror(ctx context.Context) ([]models.TournamentSummary, time.Time, error) {
	var rows []models.TournamentMirror
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, time.Time{}, err
	}
	var oldest time.Time
	out := make([]models.TournamentSummary, 0, len(rows))
	for _, row := range rows {
		var t models.TournamentSummary
		if err := json.Unmarshal([]byte(row.Summary), &t); err != nil {
			s.log.Warn("[MIRROR] skipping unreadable row", "id", row.ID, "error", err)
			continue
		}
		out = append(out, t)
		if oldest.IsZero() || row.SyncedAt.Before(oldest) {
			oldest = row.SyncedAt
		}
	}
	return out, oldest, nil
}

// PruneMirror removes tournaments the backend no longer lists.
func (s *RecordsStore) PruneMirror(ctx context.Context, syncedBefore time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("synced_at < ?", syncedBefore).Delete(&models.TournamentMirror{})
	return res.RowsAffected, res.Error
}

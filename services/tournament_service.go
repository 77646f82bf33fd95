package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"

	"tournament-join-service/logger"
	"tournament-join-service/models"
)

type TournamentBackend interface {
	ListTournaments(ctx context.Context) ([]models.RawTournament, error)
	GetTournament(ctx context.Context, id string) (models.RawTournament, error)
	CreateTournament(ctx context.Context, cred Credential, in models.TournamentInput) (models.RawTournament, error)
	UpdateTournament(ctx context.Context, cred Credential, id string, in models.TournamentInput) (models.RawTournament, error)
}

// ThumbnailUploader stores an organizer image and returns its public URL.
type ThumbnailUploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader, key string) (string, error)
}

// TournamentService is the catalogue: every record it hands out went through the Normalizer
// exactly once.
type TournamentService struct {
	backend    TournamentBackend
	normalizer *Normalizer
	mirror     MirrorStore
	uploader   ThumbnailUploader
	clock      clockwork.Clock
	maxAge     time.Duration
	log        *logger.Logger
}

type TournamentServiceOptions struct {
	Mirror   MirrorStore
	Uploader ThumbnailUploader
	Clock    clockwork.Clock
	MaxAge   time.Duration
}

func NewTournamentService(backend TournamentBackend, normalizer *Normalizer, log *logger.Logger, opts TournamentServiceOptions) *TournamentService {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TournamentService{
		backend:    backend,
		normalizer: normalizer,
		mirror:     opts.Mirror,
		uploader:   opts.Uploader,
		clock:      opts.Clock,
		maxAge:     opts.MaxAge,
		log:        log,
	}
}

// ListTournaments serves the mirror while it is fresh, otherwise refreshes from the backend.
// A stale mirror is still served if the backend is down.
func (s *TournamentService) ListTournaments(ctx context.Context) ([]models.TournamentSummary, error) {
	var cached []models.TournamentSummary
	if s.mirror != nil {
		rows, syncedAt, err := s.mirror.ListMirror(ctx)
		if err != nil {
			s.log.Warn("[CATALOGUE] mirror read failed", "error", err)
		} else if len(rows) > 0 {
			if s.clock.Since(syncedAt) <= s.maxAge {
				return rows, nil
			}
			cached = rows
		}
	}

	fresh, err := s.fetchAll(ctx)
	if err != nil {
		if cached != nil {
			s.log.Warn("[CATALOGUE] backend unavailable, serving stale mirror", "error", err)
			return cached, nil
		}
		return nil, err
	}
	s.remember(ctx, fresh...)
	return fresh, nil
}

// Refresh pulls the full list from the backend, normalizes it and writes it to the mirror.
// A failed mirror write is returned so the caller does not prune rows that were never refreshed.
func (s *TournamentService) Refresh(ctx context.Context) ([]models.TournamentSummary, error) {
	summaries, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.mirror != nil && len(summaries) > 0 {
		if err := s.mirror.UpsertMirror(ctx, summaries, s.clock.Now()); err != nil {
			return summaries, fmt.Errorf("write mirror: %w", err)
		}
	}
	return summaries, nil
}

func (s *TournamentService) fetchAll(ctx context.Context) ([]models.TournamentSummary, error) {
	raws, err := s.backend.ListTournaments(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizer.NormalizeAll(raws), nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id string) (models.TournamentSummary, error) {
	raw, err := s.backend.GetTournament(ctx, id)
	if err != nil {
		return models.TournamentSummary{}, err
	}
	summary := s.normalizer.Normalize(raw)
	if summary.ID == "" {
		summary.ID = id
	}
	return summary, nil
}

func (s *TournamentService) CreateTournament(ctx context.Context, cred Credential, in models.TournamentInput, thumbnail *multipart.FileHeader) (models.TournamentSummary, error) {
	if !cred.Present() {
		return models.TournamentSummary{}, ErrAuthenticationRequired
	}
	if err := validate.Struct(in); err != nil {
		return models.TournamentSummary{}, validationErrorFrom(err)
	}
	if err := s.attachThumbnail(ctx, &in, thumbnail); err != nil {
		return models.TournamentSummary{}, err
	}
	raw, err := s.backend.CreateTournament(ctx, cred, in)
	if err != nil {
		return models.TournamentSummary{}, err
	}
	summary := s.normalizer.Normalize(raw)
	s.remember(ctx, summary)
	s.log.Info("[CATALOGUE] tournament created", "id", summary.ID, "title", summary.Title)
	return summary, nil
}

func (s *TournamentService) UpdateTournament(ctx context.Context, cred Credential, id string, in models.TournamentInput, thumbnail *multipart.FileHeader) (models.TournamentSummary, error) {
	if !cred.Present() {
		return models.TournamentSummary{}, ErrAuthenticationRequired
	}
	if err := validate.Struct(in); err != nil {
		return models.TournamentSummary{}, validationErrorFrom(err)
	}
	if err := s.attachThumbnail(ctx, &in, thumbnail); err != nil {
		return models.TournamentSummary{}, err
	}
	raw, err := s.backend.UpdateTournament(ctx, cred, id, in)
	if err != nil {
		return models.TournamentSummary{}, err
	}
	summary := s.normalizer.Normalize(raw)
	if summary.ID == "" {
		summary.ID = id
	}
	s.remember(ctx, summary)
	return summary, nil
}

func (s *TournamentService) attachThumbnail(ctx context.Context, in *models.TournamentInput, file *multipart.FileHeader) error {
	if file == nil {
		return nil
	}
	if s.uploader == nil {
		return ErrUploadsDisabled
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return NewValidationError("thumbnail", "must be a jpg, png or webp image")
	}
	key := fmt.Sprintf("tournaments/%s-%s%s", slug.Make(in.Title), uuid.NewString()[:8], ext)
	url, err := s.uploader.Upload(ctx, file, key)
	if err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}
	in.Thumbnail = url
	return nil
}

func (s *TournamentService) remember(ctx context.Context, summaries ...models.TournamentSummary) {
	if s.mirror == nil || len(summaries) == 0 {
		return
	}
	if err := s.mirror.UpsertMirror(ctx, summaries, s.clock.Now()); err != nil {
		s.log.Warn("[CATALOGUE] mirror write failed", "error", err)
	}
}

package services

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"sync"
	"time"

	"tournament-join-service/models"
)

// fakeBackend implements JoinClient and PaymentClient and records the order of calls.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	joinFunc   func(ctx context.Context, cred Credential, req models.JoinRequest) (string, error)
	configFunc func(ctx context.Context, cred Credential, tournamentID string) (map[string]json.RawMessage, error)
	verifyFunc func(ctx context.Context, cred Credential, req models.VerifyPaymentRequest) error
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) JoinTournament(ctx context.Context, cred Credential, req models.JoinRequest) (string, error) {
	f.record("join")
	if f.joinFunc != nil {
		return f.joinFunc(ctx, cred, req)
	}
	return "R1", nil
}

func (f *fakeBackend) PaymentConfig(ctx context.Context, cred Credential, tournamentID string) (map[string]json.RawMessage, error) {
	f.record("config")
	if f.configFunc != nil {
		return f.configFunc(ctx, cred, tournamentID)
	}
	return rawConfig(`{"key_id":"rzp_test_1","order_id":"order_1","amount":499,"currency":"INR"}`), nil
}

func (f *fakeBackend) VerifyPayment(ctx context.Context, cred Credential, req models.VerifyPaymentRequest) error {
	f.record("verify")
	if f.verifyFunc != nil {
		return f.verifyFunc(ctx, cred, req)
	}
	return nil
}

func rawConfig(s string) map[string]json.RawMessage {
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		panic(err)
	}
	return out
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []SessionOutcome
}

func (o *recordingObserver) SessionResolved(out SessionOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, out)
}

func (o *recordingObserver) Outcomes() []SessionOutcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]SessionOutcome, len(o.outcomes))
	copy(out, o.outcomes)
	return out
}

type fakeTournamentBackend struct {
	listFunc   func(ctx context.Context) ([]models.RawTournament, error)
	getFunc    func(ctx context.Context, id string) (models.RawTournament, error)
	createFunc func(ctx context.Context, cred Credential, in models.TournamentInput) (models.RawTournament, error)
	updateFunc func(ctx context.Context, cred Credential, id string, in models.TournamentInput) (models.RawTournament, error)
	listCalls  int
}

func (f *fakeTournamentBackend) ListTournaments(ctx context.Context) ([]models.RawTournament, error) {
	f.listCalls++
	if f.listFunc != nil {
		return f.listFunc(ctx)
	}
	return nil, nil
}

func (f *fakeTournamentBackend) GetTournament(ctx context.Context, id string) (models.RawTournament, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, id)
	}
	return models.RawTournament{ID: id}, nil
}

func (f *fakeTournamentBackend) CreateTournament(ctx context.Context, cred Credential, in models.TournamentInput) (models.RawTournament, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, cred, in)
	}
	return models.RawTournament{}, nil
}

func (f *fakeTournamentBackend) UpdateTournament(ctx context.Context, cred Credential, id string, in models.TournamentInput) (models.RawTournament, error) {
	if f.updateFunc != nil {
		return f.updateFunc(ctx, cred, id, in)
	}
	return models.RawTournament{ID: id}, nil
}

type fakeMirror struct {
	rows     []models.TournamentSummary
	syncedAt time.Time
	readErr  error
	writeErr error
	upserts  [][]models.TournamentSummary
}

func (f *fakeMirror) UpsertMirror(_ context.Context, summaries []models.TournamentSummary, syncedAt time.Time) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.upserts = append(f.upserts, summaries)
	f.rows = summaries
	f.syncedAt = syncedAt
	return nil
}

func (f *fakeMirror) ListMirror(context.Context) ([]models.TournamentSummary, time.Time, error) {
	return f.rows, f.syncedAt, f.readErr
}

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) Upload(_ context.Context, _ *multipart.FileHeader, key string) (string, error) {
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

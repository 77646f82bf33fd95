// services/backend_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tournament-join-service/logger"
	"tournament-join-service/metrics"
	"tournament-join-service/models"
)

const maxBackendBody = 2 << 20

// Credential is the caller's bearer token, passed explicitly to every authenticated call.
type Credential struct {
	Token string
}

func (c Credential) Present() bool {
	return strings.TrimSpace(c.Token) != ""
}

// BackendClient talks to the remote tournament API.
type BackendClient struct {
	BaseURL string
	Client  *http.Client
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewBackendClient(baseURL string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *BackendClient {
	if log == nil {
		log = logger.Nop()
	}
	return &BackendClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		log:     log,
		metrics: m,
	}
}

// JoinTournament posts the roster and returns the backend registration id.
func (c *BackendClient) JoinTournament(ctx context.Context, cred Credential, req models.JoinRequest) (string, error) {
	if !cred.Present() {
		return "", ErrAuthenticationRequired
	}
	var data map[string]json.RawMessage
	path := "/tournaments/" + url.PathEscape(req.TournamentID) + "/join"
	if err := c.do(ctx, "join", http.MethodPost, path, cred.Token, req, &data); err != nil {
		return "", err
	}

	regID := pickString(data, "registrationId", "registration_id", "_id", "id")
	if regID == "" {
		if nested := pickObject(data, "registration"); nested != nil {
			regID = pickString(nested, "registrationId", "_id", "id")
		}
	}
	if regID == "" {
		return "", &BackendError{StatusCode: http.StatusBadGateway, Message: "join response did not include a registration id"}
	}
	return regID, nil
}

// PaymentConfig returns the unparsed payment configuration; PaymentBridge canonicalizes it.
func (c *BackendClient) PaymentConfig(ctx context.Context, cred Credential, tournamentID string) (map[string]json.RawMessage, error) {
	if !cred.Present() {
		return nil, ErrAuthenticationRequired
	}
	path := "/payments/config"
	if tournamentID != "" {
		path += "?" + url.Values{"tournamentId": {tournamentID}}.Encode()
	}
	var data map[string]json.RawMessage
	if err := c.do(ctx, "payment_config", http.MethodGet, path, cred.Token, nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *BackendClient) VerifyPayment(ctx context.Context, cred Credential, req models.VerifyPaymentRequest) error {
	if !cred.Present() {
		return ErrAuthenticationRequired
	}
	var data map[string]json.RawMessage
	if err := c.do(ctx, "verify_payment", http.MethodPost, "/payments/verify", cred.Token, req, &data); err != nil {
		return err
	}
	// Some deployments answer {"verified": false} with 200.
	if raw, ok := data["verified"]; ok {
		var verified bool
		if err := json.Unmarshal(raw, &verified); err == nil && !verified {
			msg := pickString(data, "message", "reason")
			if msg == "" {
				msg = "Payment verification failed"
			}
			return &BackendError{StatusCode: http.StatusPaymentRequired, Message: msg}
		}
	}
	return nil
}

func (c *BackendClient) ListTournaments(ctx context.Context) ([]models.RawTournament, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list_tournaments", http.MethodGet, "/tournaments", "", nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode tournament list: %w", err)
		}
		raw = wrapped["tournaments"]
	}
	var out []models.RawTournament
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode tournament list: %w", err)
	}
	return out, nil
}

func (c *BackendClient) GetTournament(ctx context.Context, id string) (models.RawTournament, error) {
	var raw json.RawMessage
	err := c.do(ctx, "get_tournament", http.MethodGet, "/tournaments/"+url.PathEscape(id), "", nil, &raw)
	if err != nil {
		var be *BackendError
		if errors.As(err, &be) && be.StatusCode == http.StatusNotFound {
			return models.RawTournament{}, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return models.RawTournament{}, err
	}
	return decodeTournament(raw)
}

func (c *BackendClient) CreateTournament(ctx context.Context, cred Credential, in models.TournamentInput) (models.RawTournament, error) {
	if !cred.Present() {
		return models.RawTournament{}, ErrAuthenticationRequired
	}
	var raw json.RawMessage
	if err := c.do(ctx, "create_tournament", http.MethodPost, "/tournaments", cred.Token, tournamentPayload(in), &raw); err != nil {
		return models.RawTournament{}, err
	}
	return decodeTournament(raw)
}

func (c *BackendClient) UpdateTournament(ctx context.Context, cred Credential, id string, in models.TournamentInput) (models.RawTournament, error) {
	if !cred.Present() {
		return models.RawTournament{}, ErrAuthenticationRequired
	}
	var raw json.RawMessage
	if err := c.do(ctx, "update_tournament", http.MethodPut, "/tournaments/"+url.PathEscape(id), cred.Token, tournamentPayload(in), &raw); err != nil {
		return models.RawTournament{}, err
	}
	return decodeTournament(raw)
}

func (c *BackendClient) Profile(ctx context.Context, cred Credential) (models.GamingProfile, error) {
	var out models.GamingProfile
	if !cred.Present() {
		return out, ErrAuthenticationRequired
	}
	var raw json.RawMessage
	if err := c.do(ctx, "profile", http.MethodGet, "/users/profile", cred.Token, nil, &raw); err != nil {
		return out, err
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if user, ok := wrapped["user"]; ok {
			raw = user
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode profile: %w", err)
	}
	return out, nil
}

func (c *BackendClient) Register(ctx context.Context, req models.SignupRequest) (models.AuthResult, error) {
	var out models.AuthResult
	body := map[string]any{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
		"isAdult":  req.IsAdult,
		"role":     req.Role,
	}
	if req.Phone != "" {
		body["phone"] = req.Phone
	}
	err := c.do(ctx, "register", http.MethodPost, "/auth/register", "", body, &out)
	return out, err
}

func (c *BackendClient) Login(ctx context.Context, req models.LoginRequest) (models.AuthResult, error) {
	var out models.AuthResult
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", req, &out)
	return out, err
}

// do performs one request. Non-2xx answers and {"success": false} envelopes become *BackendError;
// otherwise the envelope's data (or the whole body) is decoded into out.
func (c *BackendClient) do(ctx context.Context, op, method, path, token string, body, out any) (err error) {
	started := time.Now()
	status := 0
	defer func() {
		c.metrics.ObserveBackend(op, status, started, err)
		if err != nil {
			c.log.Warn("[BACKEND] request failed", "op", op, "method", method, "path", path, "status", status, "error", err)
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return fmt.Errorf("encode %s request: %w", op, mErr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBackendBody))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{StatusCode: resp.StatusCode, Message: extractMessage(respBody)}
	}

	data, err := unwrapEnvelope(resp.StatusCode, respBody)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func unwrapEnvelope(status int, body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return body, nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return body, nil
	}
	if raw, ok := env["success"]; ok {
		var success bool
		if err := json.Unmarshal(raw, &success); err == nil && !success {
			return nil, &BackendError{StatusCode: status, Message: extractMessage(body)}
		}
	}
	if data, ok := env["data"]; ok {
		return data, nil
	}
	return body, nil
}

func extractMessage(body []byte) string {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if msg := pickString(env, "message", "error", "msg"); msg != "" {
		return msg
	}
	if nested := pickObject(env, "error"); nested != nil {
		return pickString(nested, "message", "description")
	}
	return ""
}

func decodeTournament(raw json.RawMessage) (models.RawTournament, error) {
	var out models.RawTournament
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if inner, ok := wrapped["tournament"]; ok {
			raw = inner
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode tournament: %w", err)
	}
	return out, nil
}

// tournamentPayload converts organizer input (major units) to the backend's minor units.
func tournamentPayload(in models.TournamentInput) map[string]any {
	minor := func(v float64) int64 { return int64(math.Round(v * 100)) }
	body := map[string]any{
		"title":           in.Title,
		"game":            in.Game,
		"format":          in.Format,
		"map":             in.Map,
		"entryFee":        minor(in.EntryFee),
		"prizePool":       minor(in.PrizePool),
		"perKillPrize":    minor(in.PerKillPrize),
		"firstPrice":      minor(in.FirstPrize),
		"secondPrice":     minor(in.SecondPrize),
		"thirdPrice":      minor(in.ThirdPrize),
		"maxParticipants": in.MaxParticipants,
	}
	if in.StartTime != "" {
		body["startTime"] = in.StartTime
	}
	if in.RegistrationEndTime != "" {
		body["registrationEndTime"] = in.RegistrationEndTime
	}
	if in.Thumbnail != "" {
		body["thumbnail"] = in.Thumbnail
	}
	return body
}

func pickString(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func pickObject(obj map[string]json.RawMessage, key string) map[string]json.RawMessage {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

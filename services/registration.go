// services/registration.go
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"tournament-join-service/logger"
	"tournament-join-service/metrics"
	"tournament-join-service/models"
)

const DefaultPaymentWindow = 600 * time.Second

const (
	msgExpired          = "Registration window expired. Please start again."
	msgPaymentCancelled = "Payment was cancelled or failed."
	msgOrderMismatch    = "Payment does not match the pending order."
)

// JoinClient submits a roster to the backend.
type JoinClient interface {
	JoinTournament(ctx context.Context, cred Credential, req models.JoinRequest) (string, error)
}

// SessionOutcome describes a session that just reached SUCCEEDED, EXPIRED or FAILED.
type SessionOutcome struct {
	Snapshot   models.SessionSnapshot
	UserID     string
	OrderID    string
	PaymentID  string
	Amount     int64
	Currency   string
	ResolvedAt time.Time
}

type SessionObserver interface {
	SessionResolved(outcome SessionOutcome)
}

type SessionDeps struct {
	Join          JoinClient
	Bridge        *PaymentBridge
	Clock         clockwork.Clock
	PaymentWindow time.Duration
	Observer      SessionObserver
	Log           *logger.Logger
	Metrics       *metrics.Metrics
}

// SessionTarget identifies the tournament a session registers for.
type SessionTarget struct {
	TournamentID string
	Format       models.Format
	Game         models.Game
}

// Controller owns one registration session: its phase, roster and payment countdown.
// All mutation happens under mu; backend calls run with mu released and their results are
// applied only if the session generation and phase are still the ones the call started from.
type Controller struct {
	mu sync.Mutex

	id     string
	userID string
	target SessionTarget

	roster         *Roster
	leaderID       string
	leaderName     string
	phase          models.Phase
	remaining      int
	registrationID string
	message        string
	checkout       *models.CheckoutRequest

	generation   uint64
	countdown    *Countdown
	closed       bool
	lastActivity time.Time
	outbox       []SessionOutcome

	deps   SessionDeps
	window int
	log    *logger.Logger
}

// StartSession opens a session in COLLECTING. Nothing is sent to the backend.
func StartSession(deps SessionDeps, userID string, target SessionTarget) *Controller {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.PaymentWindow < time.Second {
		deps.PaymentWindow = DefaultPaymentWindow
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	c := &Controller{
		id:     uuid.NewString(),
		userID: userID,
		target: target,
		deps:   deps,
		window: int(deps.PaymentWindow / time.Second),
	}
	c.log = deps.Log.With("session", c.id, "tournament", target.TournamentID)
	c.reset(NewRoster(target.Format))
	c.lastActivity = deps.Clock.Now()
	return c
}

func (c *Controller) ID() string     { return c.id }
func (c *Controller) UserID() string { return c.userID }

func (c *Controller) Snapshot() models.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Roster edits. All of them require COLLECTING.

func (c *Controller) SetTeamName(name string) (models.SessionSnapshot, error) {
	return c.edit(func(r *Roster) error {
		r.SetTeamName(name)
		return nil
	})
}

func (c *Controller) AddTeammate() (models.SessionSnapshot, error) {
	return c.edit(func(r *Roster) error {
		r.AddTeammate()
		return nil
	})
}

func (c *Controller) RemoveTeammate(index int) (models.SessionSnapshot, error) {
	return c.edit(func(r *Roster) error {
		r.RemoveTeammate(index)
		return nil
	})
}

func (c *Controller) SetTeammateField(index int, field models.TeammateField, value string) (models.SessionSnapshot, error) {
	return c.edit(func(r *Roster) error {
		return r.SetTeammateField(index, field, value)
	})
}

// SeedLeader remembers the player's profile identity and applies it while the roster is untouched.
func (c *Controller) SeedLeader(playerID, displayName string) (models.SessionSnapshot, error) {
	return c.edit(func(r *Roster) error {
		c.leaderID, c.leaderName = playerID, displayName
		r.SeedLeader(playerID, displayName)
		return nil
	})
}

func (c *Controller) edit(fn func(r *Roster) error) (models.SessionSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.snapshotLocked(), ErrSessionClosed
	}
	if c.phase != models.PhaseCollecting {
		return c.snapshotLocked(), ErrInvalidPhase
	}
	c.touch()
	err := fn(c.roster)
	return c.snapshotLocked(), err
}

// Submit joins the tournament, then fetches the payment configuration and opens the widget.
// Local validation errors leave the session in COLLECTING; backend errors move it to FAILED.
func (c *Controller) Submit(ctx context.Context, cred Credential) (models.SessionSnapshot, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrSessionClosed
	}
	if c.phase != models.PhaseCollecting {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrInvalidPhase
	}
	if verr := c.roster.Validate(); verr != nil {
		defer c.mu.Unlock()
		return c.snapshotLocked(), verr
	}
	if !cred.Present() {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrAuthenticationRequired
	}
	c.touch()
	c.setPhase(models.PhaseSubmitting)
	gen := c.generation
	req := models.JoinRequest{
		TournamentID: c.target.TournamentID,
		TeamName:     c.roster.TeamName(),
		TeamMembers:  c.roster.Members(),
	}
	req.TeamName = strings.TrimSpace(req.TeamName)
	c.mu.Unlock()

	c.log.Info("[JOIN] submitting roster", "team", req.TeamName, "size", len(req.TeamMembers))
	regID, err := c.deps.Join.JoinTournament(ctx, cred, req)

	c.mu.Lock()
	if !c.currentLocked(gen, models.PhaseSubmitting) {
		c.log.Warn("[JOIN] stale join result ignored")
		return c.unlockWith(ErrSessionClosed)
	}
	if err != nil {
		c.failLocked(UserMessage(err))
		return c.unlockWith(err)
	}
	c.registrationID = regID
	c.remaining = c.window
	c.setPhase(models.PhaseAwaitingPayment)
	c.countdown = StartCountdown(c.deps.Clock, time.Second, func() { c.tickFor(gen) })
	c.log.Info("[JOIN] joined, awaiting payment", "registration", regID, "window", c.window)
	c.mu.Unlock()

	return c.requestPayment(ctx, cred, gen, regID)
}

func (c *Controller) requestPayment(ctx context.Context, cred Credential, gen uint64, regID string) (models.SessionSnapshot, error) {
	cfg, err := c.deps.Bridge.RequestConfig(ctx, cred, c.target.TournamentID)

	c.mu.Lock()
	if !c.currentLocked(gen, models.PhaseAwaitingPayment) {
		c.log.Warn("[PAYMENT] stale payment config ignored")
		return c.unlockWith(nil)
	}
	if err != nil {
		c.failLocked(UserMessage(err))
		return c.unlockWith(err)
	}
	checkout := c.deps.Bridge.Checkout(cfg, regID)
	c.checkout = &checkout
	c.setPhase(models.PhasePaying)
	c.mu.Unlock()

	if err := c.deps.Bridge.Open(ctx, c.id, checkout); err != nil {
		c.mu.Lock()
		if c.currentLocked(gen, models.PhasePaying) {
			c.failLocked(UserMessage(err))
		}
		return c.unlockWith(err)
	}
	return c.Snapshot(), nil
}

// CompletePayment handles the widget's success callback. A callback that arrives after the
// session expired, failed or closed is rejected with ErrInvalidPhase and changes nothing.
func (c *Controller) CompletePayment(ctx context.Context, cred Credential, receipt models.PaymentReceipt) (models.SessionSnapshot, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrSessionClosed
	}
	if c.phase != models.PhasePaying {
		c.log.Warn("[PAYMENT] success callback ignored", "phase", c.phase)
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrInvalidPhase
	}
	c.touch()
	if c.checkout != nil && receipt.OrderID != "" && receipt.OrderID != c.checkout.OrderID {
		c.failLocked(msgOrderMismatch)
		return c.unlockWith(NewValidationError("razorpay_order_id", "does not match the pending order"))
	}
	gen := c.generation
	regID := c.registrationID
	c.mu.Unlock()

	err := c.deps.Bridge.Verify(ctx, cred, regID, receipt)

	c.mu.Lock()
	if !c.currentLocked(gen, models.PhasePaying) {
		c.log.Warn("[PAYMENT] stale verification result ignored", "phase", c.phase)
		return c.unlockWith(ErrInvalidPhase)
	}
	if err != nil {
		c.failLocked(UserMessage(err))
		return c.unlockWith(err)
	}
	c.succeedLocked(receipt)
	return c.unlockWith(nil)
}

// FailPayment handles the widget's failure or dismissal callback.
func (c *Controller) FailPayment(reason string) (models.SessionSnapshot, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrSessionClosed
	}
	if c.phase != models.PhasePaying {
		defer c.mu.Unlock()
		return c.snapshotLocked(), ErrInvalidPhase
	}
	c.touch()
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = msgPaymentCancelled
	}
	c.failLocked(reason)
	return c.unlockWith(nil)
}

// Tick advances the countdown by one second for the current attempt.
func (c *Controller) Tick() {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.tickFor(gen)
}

func (c *Controller) tickFor(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.generation || !c.phase.Timed() || c.remaining <= 0 {
		c.mu.Unlock()
		return
	}
	c.remaining--
	if c.remaining == 0 {
		c.log.Info("[JOIN] payment window elapsed", "registration", c.registrationID)
		c.message = msgExpired
		c.stopCountdownLocked()
		c.setPhase(models.PhaseExpired)
		c.queueOutcomeLocked(nil)
		c.checkout = nil
	}
	c.unlockWith(nil)
}

// Retry starts over after expiry with a fresh roster.
func (c *Controller) Retry() (models.SessionSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.snapshotLocked(), ErrSessionClosed
	}
	if c.phase != models.PhaseExpired {
		return c.snapshotLocked(), ErrInvalidPhase
	}
	c.touch()
	c.reset(NewRoster(c.target.Format))
	return c.snapshotLocked(), nil
}

// Reopen returns a failed session to COLLECTING and keeps the roster for resubmission.
func (c *Controller) Reopen() (models.SessionSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.snapshotLocked(), ErrSessionClosed
	}
	if c.phase != models.PhaseFailed {
		return c.snapshotLocked(), ErrInvalidPhase
	}
	c.touch()
	c.reset(c.roster)
	return c.snapshotLocked(), nil
}

// Close tears the session down. Pending results and ticks are discarded afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.stopCountdownLocked()
	c.checkout = nil
	c.log.Info("[JOIN] session closed", "phase", c.phase)
}

func (c *Controller) reset(roster *Roster) {
	c.generation++
	c.stopCountdownLocked()
	c.roster = roster
	if c.leaderID != "" || c.leaderName != "" {
		c.roster.SeedLeader(c.leaderID, c.leaderName)
	}
	c.registrationID = ""
	c.message = ""
	c.checkout = nil
	c.remaining = c.window
	c.setPhase(models.PhaseCollecting)
}

func (c *Controller) failLocked(message string) {
	c.stopCountdownLocked()
	c.message = message
	c.setPhase(models.PhaseFailed)
	c.log.Warn("[JOIN] session failed", "reason", message)
	c.queueOutcomeLocked(nil)
	c.checkout = nil
}

func (c *Controller) succeedLocked(receipt models.PaymentReceipt) {
	c.stopCountdownLocked()
	c.message = ""
	c.setPhase(models.PhaseSucceeded)
	c.log.Info("[PAYMENT] payment verified", "registration", c.registrationID, "payment", receipt.PaymentID)
	c.queueOutcomeLocked(&receipt)
	c.checkout = nil
}

func (c *Controller) queueOutcomeLocked(receipt *models.PaymentReceipt) {
	if c.deps.Observer == nil {
		return
	}
	out := SessionOutcome{
		Snapshot:   c.snapshotLocked(),
		UserID:     c.userID,
		ResolvedAt: c.deps.Clock.Now(),
	}
	if c.checkout != nil {
		out.OrderID = c.checkout.OrderID
		out.Amount = c.checkout.Amount
		out.Currency = c.checkout.Currency
	}
	if receipt != nil {
		out.PaymentID = receipt.PaymentID
		if out.OrderID == "" {
			out.OrderID = receipt.OrderID
		}
	}
	c.outbox = append(c.outbox, out)
}

// unlockWith releases mu, then delivers queued outcomes outside the lock.
func (c *Controller) unlockWith(err error) (models.SessionSnapshot, error) {
	snap := c.snapshotLocked()
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()
	for _, out := range pending {
		c.deps.Observer.SessionResolved(out)
	}
	return snap, err
}

func (c *Controller) currentLocked(gen uint64, phase models.Phase) bool {
	return !c.closed && c.generation == gen && c.phase == phase
}

func (c *Controller) setPhase(p models.Phase) {
	c.phase = p
	c.deps.Metrics.ObservePhase(string(p))
}

func (c *Controller) stopCountdownLocked() {
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
}

func (c *Controller) touch() {
	c.lastActivity = c.deps.Clock.Now()
}

func (c *Controller) snapshotLocked() models.SessionSnapshot {
	snap := models.SessionSnapshot{
		SessionID:        c.id,
		TournamentID:     c.target.TournamentID,
		Format:           c.target.Format,
		TeamName:         c.roster.TeamName(),
		Roster:           c.roster.Entries(),
		Phase:            c.phase,
		RemainingSeconds: c.remaining,
		RegistrationID:   c.registrationID,
		Message:          c.message,
		Ready:            c.roster.IsReady(),
	}
	if c.checkout != nil {
		cp := *c.checkout
		snap.Checkout = &cp
	}
	return snap
}

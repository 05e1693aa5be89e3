package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// DefaultResetTokenTTL bounds how long a reset token can be redeemed.
var DefaultResetTokenTTL = 30 * time.Minute

type RequestPasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *RequestPasswordResetResponse)
}

func (p RequestPasswordResetMessage) Type() string { return "user.password_reset.request" }

type RequestPasswordResetResponse struct {
	Reset   *PasswordResetToken
	Success bool
}

// RequestPasswordResetHandler issues a fresh reset token for a member. Every
// token that is still active for the member is invalidated in the same
// transaction that creates the new one, so at most one token per member is
// ever redeemable, even under concurrent requests.
type RequestPasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	ttl    time.Duration
	now    func() time.Time
	logger Logger
}

func NewRequestPasswordResetHandler(repo RepositoryManager) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		repo:   repo,
		mailer: noopMailer{},
		ttl:    DefaultResetTokenTTL,
		now:    time.Now,
		logger: defLogger{},
	}
}

// WithMailer sets the collaborator that delivers the token to the member.
func (h *RequestPasswordResetHandler) WithMailer(mailer Mailer) *RequestPasswordResetHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

func (h *RequestPasswordResetHandler) WithTTL(ttl time.Duration) *RequestPasswordResetHandler {
	if ttl > 0 {
		h.ttl = ttl
	}
	return h
}

// WithClock injects a custom clock (useful for tests).
func (h *RequestPasswordResetHandler) WithClock(clock func() time.Time) *RequestPasswordResetHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	resp := &RequestPasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// Do not reveal whether the address exists. The request
				// "succeeds" with no token issued.
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		if user.Withdrawn() {
			return nil
		}

		now := h.now()

		if _, err := h.repo.PasswordResetTokens().InvalidateActiveTx(ctx, tx, user.ID, now); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to invalidate previous reset tokens")
		}

		value, err := NewResetTokenValue()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token value")
		}

		reset := &PasswordResetToken{
			UserID:    user.ID,
			Token:     value,
			CreatedAt: &now,
			ExpiresAt: now.Add(h.ttl),
		}

		created, err := h.repo.PasswordResetTokens().CreateTx(ctx, tx, reset)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
		}

		resp.Reset = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	resp.Success = true

	if resp.Reset != nil {
		if err := h.mailer.SendPasswordReset(ctx, event.Email, resp.Reset.Token); err != nil {
			h.logger.Error("failed to deliver password reset token", "error", err)
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

type noopMailer struct{}

func (noopMailer) SendPasswordReset(context.Context, string, string) error { return nil }

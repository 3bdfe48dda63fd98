package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stayhub/stayhub-backend/internal/cooldown"
	"github.com/stayhub/stayhub-backend/internal/logger"
	"github.com/stayhub/stayhub-backend/internal/models"
	"github.com/stayhub/stayhub-backend/internal/notify"
	"github.com/stayhub/stayhub-backend/internal/repository"
	"github.com/stayhub/stayhub-backend/internal/token"
)

// ErrInvalidLink возвращается на любую негодную ссылку подтверждения:
// битый uid, чужой аккаунт, подделанный или истёкший токен, повторный визит.
// Причина наружу не сообщается.
var ErrInvalidLink = errors.New("invalid activation link")

// EmailVerificationAccounts описывает зависимости сервиса от слоя хранилища.
type EmailVerificationAccounts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	SetEmailConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error
}

// EmailVerificationService отвечает за подтверждение email по ссылке.
type EmailVerificationService struct {
	accounts   EmailVerificationAccounts
	gate       cooldown.Gate
	codec      *token.Codec
	dispatcher notify.Dispatcher

	baseURL string
	window  time.Duration
}

// NewEmailVerificationService создаёт сервис подтверждения email.
func NewEmailVerificationService(
	accounts EmailVerificationAccounts,
	gate cooldown.Gate,
	codec *token.Codec,
	dispatcher notify.Dispatcher,
	baseURL string,
	window time.Duration,
) *EmailVerificationService {
	if window <= 0 {
		window = cooldown.DefaultWindow
	}
	return &EmailVerificationService{
		accounts:   accounts,
		gate:       gate,
		codec:      codec,
		dispatcher: dispatcher,
		baseURL:    baseURL,
		window:     window,
	}
}

// SendConfirmation отправляет письмо со ссылкой подтверждения.
// Повторный вызов внутри окна кулдауна - тихий no-op.
func (s *EmailVerificationService) SendConfirmation(ctx context.Context, account *models.Account) error {
	if account.EmailConfirmed {
		return nil
	}

	if !s.gate.TryAcquire(ctx, cooldown.EmailKey(account.ID.String()), s.window) {
		logger.Log.WithFields(map[string]interface{}{
			"account_id": account.ID,
		}).Debug("email verification: письмо уже отправлялось недавно, пропускаем")
		return nil
	}

	link := s.activationLink(account)

	_, err := s.dispatcher.Submit(notify.TaskDescriptor{
		Email: &notify.EmailMessage{
			Subject:   "Activate your account",
			PlainBody: fmt.Sprintf("Follow the link to confirm your email address: %s", link),
			HTMLBody: fmt.Sprintf(
				`<p>Welcome! Please confirm your email address by following the link below.</p><p><a href="%s">Confirm email</a></p>`,
				link,
			),
			To: []string{account.Email},
		},
	})
	if err != nil {
		return fmt.Errorf("email verification: отправка не поставлена в очередь: %w", err)
	}

	return nil
}

// Confirm проверяет ссылку подтверждения и проставляет email_confirmed.
// Любая негодная ссылка даёт ErrInvalidLink без изменения состояния.
func (s *EmailVerificationService) Confirm(ctx context.Context, encodedRef, tok string) (*models.Account, error) {
	accountID, err := DecodeAccountRef(encodedRef)
	if err != nil {
		return nil, ErrInvalidLink
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}

	if !s.codec.Verify(account, tok) {
		return nil, ErrInvalidLink
	}

	if err := s.accounts.SetEmailConfirmed(ctx, account.ID, true); err != nil {
		return nil, err
	}
	account.EmailConfirmed = true

	logger.Log.WithFields(map[string]interface{}{
		"account_id": account.ID,
	}).Info("email verification: email подтверждён")

	return account, nil
}

// activationLink собирает ссылку вида /accounts/activate/<uid>/<token>/.
func (s *EmailVerificationService) activationLink(account *models.Account) string {
	return fmt.Sprintf("%s/accounts/activate/%s/%s/", s.baseURL, EncodeAccountRef(account.ID), s.codec.Issue(account))
}

// EncodeAccountRef кодирует id аккаунта в url-safe base64 для ссылки.
func EncodeAccountRef(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// DecodeAccountRef разбирает uid из ссылки подтверждения.
func DecodeAccountRef(encoded string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return uuid.Nil, fmt.Errorf("email verification: битый uid: %w", err)
	}

	id, err := uuid.Parse(string(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("email verification: uid не является идентификатором: %w", err)
	}

	return id, nil
}

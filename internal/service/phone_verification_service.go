package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stayhub/stayhub-backend/internal/cooldown"
	"github.com/stayhub/stayhub-backend/internal/logger"
	"github.com/stayhub/stayhub-backend/internal/models"
	"github.com/stayhub/stayhub-backend/internal/notify"
	"github.com/stayhub/stayhub-backend/internal/repository"
)

// SendOutcome - итог запроса кода подтверждения. Закрытое множество значений
// вместо исключений: вызывающий ветвится по Status.
type SendOutcome struct {
	Status            models.CodeDeliveryStatus
	ProviderMessageID string
}

// PhoneVerificationAccounts описывает зависимости сервиса от слоя хранилища.
type PhoneVerificationAccounts interface {
	SetPhone(ctx context.Context, id uuid.UUID, phone *string, confirmed bool) error
	SetPhoneConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error
}

// SmsCodes описывает хранилище выданных кодов.
type SmsCodes interface {
	Upsert(ctx context.Context, accountID uuid.UUID, code string) error
	Get(ctx context.Context, accountID uuid.UUID) (*models.SmsCode, error)
}

// PhoneVerificationService отвечает за подтверждение телефона по SMS-коду.
type PhoneVerificationService struct {
	accounts   PhoneVerificationAccounts
	codes      SmsCodes
	gate       cooldown.Gate
	statuses   cooldown.StatusStore
	dispatcher notify.Dispatcher

	fromNumber string
	siteName   string
	window     time.Duration
	// Сколько ждём итог доставки в запросном пути; дальше считаем отправку
	// неуспешной, доставка при этом продолжается в фоне.
	waitTimeout time.Duration

	// genCode подменяется в тестах.
	genCode func() string
}

// NewPhoneVerificationService создаёт сервис подтверждения телефона.
func NewPhoneVerificationService(
	accounts PhoneVerificationAccounts,
	codes SmsCodes,
	gate cooldown.Gate,
	statuses cooldown.StatusStore,
	dispatcher notify.Dispatcher,
	fromNumber, siteName string,
	window, waitTimeout time.Duration,
) *PhoneVerificationService {
	if window <= 0 {
		window = cooldown.DefaultWindow
	}
	if waitTimeout <= 0 {
		waitTimeout = 10 * time.Second
	}
	return &PhoneVerificationService{
		accounts:    accounts,
		codes:       codes,
		gate:        gate,
		statuses:    statuses,
		dispatcher:  dispatcher,
		fromNumber:  fromNumber,
		siteName:    siteName,
		window:      window,
		waitTimeout: waitTimeout,
		genCode:     GenerateSMSCode,
	}
}

// RequestCode выдаёт новый код и отправляет его на номер.
//
// Кулдаун скоупится по нормализованному номеру, а не по аккаунту: один и
// тот же номер нельзя заливать кодами с разных аккаунтов. Ошибки провайдера
// не выходят наружу - они превращаются в Outcome со статусом failed.
func (s *PhoneVerificationService) RequestCode(ctx context.Context, account *models.Account, newPhone string) (SendOutcome, error) {
	digits := NormalizePhone(newPhone)
	if digits == "" {
		return SendOutcome{}, fmt.Errorf("phone verification: номер %q не содержит цифр", newPhone)
	}

	if !s.gate.TryAcquire(ctx, cooldown.SMSKey(digits), s.window) {
		return SendOutcome{Status: models.CodeStatusCooldown}, nil
	}

	code := s.genCode()

	// Код и номер фиксируются в том же запросе, что и решение отправлять.
	// Сама доставка асинхронна: узкое окно, когда код уже записан, а провал
	// доставки ещё не известен, закрывается статусом failed и повторной
	// отправкой после жалобы пользователя.
	if err := s.codes.Upsert(ctx, account.ID, code); err != nil {
		return SendOutcome{}, err
	}
	if err := s.accounts.SetPhone(ctx, account.ID, &newPhone, false); err != nil {
		return SendOutcome{}, err
	}
	account.PhoneNumber = &newPhone
	account.PhoneConfirmed = false

	handle, err := s.dispatcher.Submit(notify.TaskDescriptor{
		SMS: &notify.SMSMessage{
			Body: fmt.Sprintf("Your %s verification code is: %s", s.siteName, code),
			From: s.fromNumber,
			To:   newPhone,
		},
	})
	if err != nil {
		return s.recordFailure(ctx, account.ID, err), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()

	res, ok := handle.Wait(waitCtx)
	if !ok {
		return s.recordFailure(ctx, account.ID, fmt.Errorf("phone verification: итог доставки не пришёл за %s", s.waitTimeout)), nil
	}
	if !res.Delivered {
		return s.recordFailure(ctx, account.ID, res.Err), nil
	}

	if err := s.statuses.Set(ctx, account.ID.String(), models.CodeStatusDelivered); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"account_id": account.ID,
			"error":      err.Error(),
		}).Warn("phone verification: статус доставки не записан")
	}

	return SendOutcome{
		Status:            models.CodeStatusDelivered,
		ProviderMessageID: res.ProviderMessageID,
	}, nil
}

// ValidateCode сравнивает введённый код с выданным. Сравнение побайтовое:
// код "0042" обязан быть введён с ведущим нулём.
func (s *PhoneVerificationService) ValidateCode(ctx context.Context, account *models.Account, submitted string) (bool, error) {
	rec, err := s.codes.Get(ctx, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSmsCodeNotFound) {
			return false, nil
		}
		return false, err
	}

	if rec.Code != submitted {
		return false, nil
	}

	if err := s.accounts.SetPhoneConfirmed(ctx, account.ID, true); err != nil {
		return false, err
	}
	account.PhoneConfirmed = true

	logger.Log.WithFields(map[string]interface{}{
		"account_id": account.ID,
	}).Info("phone verification: телефон подтверждён")

	return true, nil
}

// DeliveryStatus возвращает статус последней отправки для аккаунта.
func (s *PhoneVerificationService) DeliveryStatus(ctx context.Context, accountID uuid.UUID) (models.CodeDeliveryStatus, error) {
	return s.statuses.Get(ctx, accountID.String())
}

func (s *PhoneVerificationService) recordFailure(ctx context.Context, accountID uuid.UUID, cause error) SendOutcome {
	if cause != nil {
		logger.Log.WithFields(map[string]interface{}{
			"account_id": accountID,
			"error":      cause.Error(),
		}).Error("phone verification: SMS не доставлена")
	}

	if err := s.statuses.Set(ctx, accountID.String(), models.CodeStatusFailed); err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"account_id": accountID,
			"error":      err.Error(),
		}).Warn("phone verification: статус доставки не записан")
	}

	return SendOutcome{Status: models.CodeStatusFailed}
}

// GenerateSMSCode выдаёт равномерно случайный 4-значный код 0000-9999.
func GenerateSMSCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// crypto/rand не отдаёт ошибок на поддерживаемых платформах.
		panic(fmt.Sprintf("phone verification: crypto/rand: %v", err))
	}
	return fmt.Sprintf("%04d", n.Int64())
}

// NormalizePhone оставляет от номера только цифры.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

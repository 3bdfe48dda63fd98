package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/stayhub/stayhub-backend/internal/logger"
	"github.com/stayhub/stayhub-backend/internal/models"
)

// ProfileAccounts описывает зависимости сервиса профиля от слоя хранилища.
type ProfileAccounts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) error
	SetPhone(ctx context.Context, id uuid.UUID, phone *string, confirmed bool) error
}

// ProfileInput - данные формы редактирования профиля.
type ProfileInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
}

// ProfileSaveResult - итог сохранения профиля.
type ProfileSaveResult struct {
	Account *models.Account
	// SmsOutcome заполнен, если сохранение повлекло отправку кода.
	SmsOutcome *SendOutcome
}

// ProfileService обслуживает редактирование профиля аккаунта.
type ProfileService struct {
	accounts ProfileAccounts
	phone    *PhoneVerificationService
}

// NewProfileService создаёт сервис профиля.
func NewProfileService(accounts ProfileAccounts, phone *PhoneVerificationService) *ProfileService {
	return &ProfileService{accounts: accounts, phone: phone}
}

// Save применяет изменения профиля и при необходимости запускает
// верификацию телефона.
//
// Код запрашивается не только при смене номера: если прошлая отправка
// упала (статус failed), повторное сохранение с тем же номером обязано
// снова позвать RequestCode - кулдаун-гейт при этом никто не обходит.
func (s *ProfileService) Save(ctx context.Context, accountID uuid.UUID, in ProfileInput) (*ProfileSaveResult, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != account.FirstName || in.LastName != account.LastName {
		if err := s.accounts.UpdateNames(ctx, account.ID, in.FirstName, in.LastName); err != nil {
			return nil, err
		}
		account.FirstName = in.FirstName
		account.LastName = in.LastName
	}

	newPhone := strings.TrimSpace(in.PhoneNumber)

	// Номер убрали из профиля: сбрасываем подтверждение, ничего не шлём.
	if newPhone == "" {
		if account.PhoneNumber != nil {
			if err := s.accounts.SetPhone(ctx, account.ID, nil, false); err != nil {
				return nil, err
			}
			account.PhoneNumber = nil
			account.PhoneConfirmed = false
		}
		return &ProfileSaveResult{Account: account}, nil
	}

	phoneChanged := account.PhoneNumber == nil || *account.PhoneNumber != newPhone

	lastStatus, err := s.phone.DeliveryStatus(ctx, account.ID)
	if err != nil {
		// Статус эфемерный: если его не прочитать, считаем, что повторять нечего.
		logger.Log.WithFields(map[string]interface{}{
			"account_id": account.ID,
			"error":      err.Error(),
		}).Warn("profile: статус доставки не прочитан")
		lastStatus = ""
	}

	if !phoneChanged && lastStatus != models.CodeStatusFailed {
		return &ProfileSaveResult{Account: account}, nil
	}

	outcome, err := s.phone.RequestCode(ctx, account, newPhone)
	if err != nil {
		return nil, err
	}

	return &ProfileSaveResult{Account: account, SmsOutcome: &outcome}, nil
}

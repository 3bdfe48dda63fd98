package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stayhub/stayhub-backend/internal/models"
)

// ErrAccountNotFound возвращается, когда запись аккаунта не найдена.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository отвечает за работу с таблицами accounts и sessions.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository создаёт экземпляр репозитория.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create создаёт новый аккаунт.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (email, first_name, last_name, password_hash, email_confirmed, phone_confirmed, is_active)
		VALUES ($1, $2, $3, $4, FALSE, FALSE, TRUE)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		account.Email, account.FirstName, account.LastName, account.PasswordHash,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return fmt.Errorf("account repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает аккаунт по email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	query := `
		SELECT id, email, first_name, last_name, password_hash, email_confirmed, phone_number, phone_confirmed, is_active, last_login_at, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("account repository: get by email %w", err)
	}

	return &account, nil
}

// GetByID возвращает аккаунт по идентификатору.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	query := `
		SELECT id, email, first_name, last_name, password_hash, email_confirmed, phone_number, phone_confirmed, is_active, last_login_at, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("account repository: get by id %w", err)
	}

	return &account, nil
}

// UpdateNames сохраняет имя и фамилию.
func (r *AccountRepository) UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) error {
	query := `UPDATE accounts SET first_name = $2, last_name = $3, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, firstName, lastName)
	if err != nil {
		return fmt.Errorf("account repository: update names %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SetEmailConfirmed проставляет флаг подтверждения email.
func (r *AccountRepository) SetEmailConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error {
	query := `UPDATE accounts SET email_confirmed = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, confirmed)
	if err != nil {
		return fmt.Errorf("account repository: set email confirmed %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SetPhone сохраняет номер телефона и флаг его подтверждения. nil-номер
// означает, что пользователь убрал телефон из профиля.
func (r *AccountRepository) SetPhone(ctx context.Context, id uuid.UUID, phone *string, confirmed bool) error {
	query := `UPDATE accounts SET phone_number = $2, phone_confirmed = $3, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, phone, confirmed)
	if err != nil {
		return fmt.Errorf("account repository: set phone %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SetPhoneConfirmed проставляет флаг подтверждения телефона.
func (r *AccountRepository) SetPhoneConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error {
	query := `UPDATE accounts SET phone_confirmed = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, confirmed)
	if err != nil {
		return fmt.Errorf("account repository: set phone confirmed %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// UpdateLastLoginAt обновляет время последнего входа.
func (r *AccountRepository) UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE accounts SET last_login_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("account repository: update last login %w", err)
	}
	return nil
}

// CreateSession сохраняет сессию.
func (r *AccountRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (account_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		session.AccountID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("account repository: create session %w", err)
	}

	return nil
}

// DeleteSession удаляет сессию по refresh токену.
func (r *AccountRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	query := `DELETE FROM sessions WHERE refresh_token = $1`
	if _, err := r.db.ExecContext(ctx, query, refreshToken); err != nil {
		return fmt.Errorf("account repository: delete session %w", err)
	}
	return nil
}

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

// ErrSmsCodeNotFound возвращается, когда для аккаунта нет выданного кода.
var ErrSmsCodeNotFound = errors.New("sms code not found")

// SmsCodeRepository хранит по одному активному SMS-коду на аккаунт.
type SmsCodeRepository struct {
	db *sqlx.DB
}

// NewSmsCodeRepository создаёт экземпляр репозитория.
func NewSmsCodeRepository(db *sqlx.DB) *SmsCodeRepository {
	return &SmsCodeRepository{db: db}
}

// Upsert записывает новый код, перезаписывая предыдущий: валиден всегда
// только последний выданный код.
func (r *SmsCodeRepository) Upsert(ctx context.Context, accountID uuid.UUID, code string) error {
	query := `
		INSERT INTO sms_codes (account_id, code, issued_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account_id) DO UPDATE
		SET code = EXCLUDED.code,
			issued_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, accountID, code); err != nil {
		return fmt.Errorf("sms code repository: upsert %w", err)
	}

	return nil
}

// Get возвращает текущий код аккаунта.
func (r *SmsCodeRepository) Get(ctx context.Context, accountID uuid.UUID) (*models.SmsCode, error) {
	var rec models.SmsCode
	query := `
		SELECT account_id, code, issued_at
		FROM sms_codes
		WHERE account_id = $1
	`
	if err := r.db.GetContext(ctx, &rec, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSmsCodeNotFound
		}
		return nil, fmt.Errorf("sms code repository: get %w", err)
	}

	return &rec, nil
}

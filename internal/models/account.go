package models

import (
	"time"

	"github.com/google/uuid"
)

// Account описывает аккаунт пользователя маркетплейса.
type Account struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	EmailConfirmed bool       `db:"email_confirmed" json:"email_confirmed"`
	PhoneNumber    *string    `db:"phone_number" json:"phone_number,omitempty"`
	PhoneConfirmed bool       `db:"phone_confirmed" json:"phone_confirmed"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// SmsCode хранит последний выданный код подтверждения телефона.
// На аккаунт существует не больше одной записи: новый код перезаписывает старый,
// валиден всегда только последний.
type SmsCode struct {
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Code      string    `db:"code" json:"-"`
	IssuedAt  time.Time `db:"issued_at" json:"issued_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AccountID    uuid.UUID `db:"account_id" json:"account_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

package dto

import (
	"github.com/google/uuid"
	"github.com/stayhub/stayhub-backend/internal/models"
)

// AccountResponse represents an account without sensitive fields
type AccountResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	EmailConfirmed bool      `json:"email_confirmed"`
	PhoneNumber    *string   `json:"phone_number,omitempty"`
	PhoneConfirmed bool      `json:"phone_confirmed"`
}

// NewAccountResponse creates an AccountResponse from a model
func NewAccountResponse(account *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:             account.ID,
		Email:          account.Email,
		FirstName:      account.FirstName,
		LastName:       account.LastName,
		EmailConfirmed: account.EmailConfirmed,
		PhoneNumber:    account.PhoneNumber,
		PhoneConfirmed: account.PhoneConfirmed,
	}
}

// TokenPairResponse represents an issued access/refresh token pair
type TokenPairResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Account      *AccountResponse `json:"account"`
}

// SmsOutcomeResponse represents the result of an SMS code request
type SmsOutcomeResponse struct {
	Status            models.CodeDeliveryStatus `json:"status"`
	ProviderMessageID string                    `json:"provider_message_id,omitempty"`
}

// ProfileResponse represents a saved profile with the optional SMS outcome
type ProfileResponse struct {
	Account    *AccountResponse    `json:"account"`
	SmsOutcome *SmsOutcomeResponse `json:"sms_outcome,omitempty"`
}

// DeliveryStatusResponse represents the last known SMS delivery status
type DeliveryStatusResponse struct {
	Status models.CodeDeliveryStatus `json:"status"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

package dto

import (
	"fmt"
	"strings"
)

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the request to refresh a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest represents the request to update account profile
type UpdateProfileRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// VerificationCodeRequest carries the SMS code split across four inputs,
// one decimal digit per field, matching the four-box confirmation form.
type VerificationCodeRequest struct {
	Digit1 string `json:"digit_1" binding:"required"`
	Digit2 string `json:"digit_2" binding:"required"`
	Digit3 string `json:"digit_3" binding:"required"`
	Digit4 string `json:"digit_4" binding:"required"`
}

// Code validates the four fields and concatenates them in order.
func (r *VerificationCodeRequest) Code() (string, error) {
	digits := []string{r.Digit1, r.Digit2, r.Digit3, r.Digit4}
	for i, d := range digits {
		if len(d) != 1 || d[0] < '0' || d[0] > '9' {
			return "", fmt.Errorf("поле digit_%d должно содержать ровно одну цифру", i+1)
		}
	}
	return strings.Join(digits, ""), nil
}

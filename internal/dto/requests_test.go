package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationCodeRequest_Code(t *testing.T) {
	req := VerificationCodeRequest{Digit1: "4", Digit2: "8", Digit3: "2", Digit4: "1"}
	code, err := req.Code()
	require.NoError(t, err)
	assert.Equal(t, "4821", code)
}

func TestVerificationCodeRequest_Code_LeadingZeros(t *testing.T) {
	req := VerificationCodeRequest{Digit1: "0", Digit2: "0", Digit3: "4", Digit4: "2"}
	code, err := req.Code()
	require.NoError(t, err)
	assert.Equal(t, "0042", code)
}

func TestVerificationCodeRequest_Code_Invalid(t *testing.T) {
	cases := []struct {
		name string
		req  VerificationCodeRequest
	}{
		{"пустое поле", VerificationCodeRequest{Digit1: "1", Digit2: "", Digit3: "3", Digit4: "4"}},
		{"не цифра", VerificationCodeRequest{Digit1: "1", Digit2: "a", Digit3: "3", Digit4: "4"}},
		{"две цифры в поле", VerificationCodeRequest{Digit1: "12", Digit2: "3", Digit3: "4", Digit4: "5"}},
		{"пробел", VerificationCodeRequest{Digit1: " ", Digit2: "2", Digit3: "3", Digit4: "4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.req.Code()
			assert.Error(t, err)
		})
	}
}

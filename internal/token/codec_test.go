package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhub/stayhub-backend/internal/models"
)

const testSecret = "codec-test-secret"

func newTestAccount() *models.Account {
	return &models.Account{
		ID:             uuid.New(),
		Email:          "guest@example.com",
		EmailConfirmed: false,
	}
}

func TestCodec_IssueThenVerify(t *testing.T) {
	codec := NewCodec(testSecret, DefaultMaxAge)
	account := newTestAccount()

	tok := codec.Issue(account)

	assert.True(t, codec.Verify(account, tok))
}

func TestCodec_Verify_SelfInvalidatesAfterConfirmation(t *testing.T) {
	codec := NewCodec(testSecret, DefaultMaxAge)
	account := newTestAccount()

	tok := codec.Issue(account)
	require.True(t, codec.Verify(account, tok))

	// Подтверждение email гасит все ранее выданные токены.
	account.EmailConfirmed = true

	assert.False(t, codec.Verify(account, tok))
}

func TestCodec_Verify_WrongAccount(t *testing.T) {
	codec := NewCodec(testSecret, DefaultMaxAge)
	account := newTestAccount()
	other := newTestAccount()

	tok := codec.Issue(account)

	assert.False(t, codec.Verify(other, tok))
}

func TestCodec_Verify_Expired(t *testing.T) {
	codec := NewCodec(testSecret, DefaultMaxAge)
	account := newTestAccount()

	tok := codec.Issue(account)

	codec.now = func() time.Time { return time.Now().Add(DefaultMaxAge + time.Hour) }

	assert.False(t, codec.Verify(account, tok))
}

func TestCodec_Verify_Tampered(t *testing.T) {
	codec := NewCodec(testSecret, DefaultMaxAge)
	account := newTestAccount()

	tok := codec.Issue(account)
	tampered := tok[:len(tok)-1]
	if tok[len(tok)-1] == 'a' {
		tampered += "b"
	} else {
		tampered += "a"
	}

	assert.False(t, codec.Verify(account, tampered))
}

func TestCodec_Verify_Garbage(t *testing.T) {
	codec := NewCodec(testSecret, DefaultMaxAge)
	account := newTestAccount()

	assert.False(t, codec.Verify(account, ""))
	assert.False(t, codec.Verify(account, "no-dash-but-not-a-timestamp"))
	assert.False(t, codec.Verify(account, "!!!-deadbeef"))
	assert.False(t, codec.Verify(nil, codec.Issue(account)))
}

func TestCodec_Verify_DifferentSecret(t *testing.T) {
	account := newTestAccount()
	tok := NewCodec(testSecret, DefaultMaxAge).Issue(account)

	assert.False(t, NewCodec("another-secret", DefaultMaxAge).Verify(account, tok))
}

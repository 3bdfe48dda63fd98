package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stayhub/stayhub-backend/internal/models"
	"github.com/stayhub/stayhub-backend/internal/repository"
	"github.com/stayhub/stayhub-backend/internal/token"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	*mockAccountStore
	byEmail  map[string]*models.Account
	sessions map[string]*models.Session
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		mockAccountStore: newMockAccountStore(),
		byEmail:          make(map[string]*models.Account),
		sessions:         make(map[string]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, account *models.Account) error {
	account.ID = uuid.New()
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.IsActive = true
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	m.byEmail[account.Email] = account
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, refreshToken)
	return nil
}

func (m *mockAuthRepository) UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	now := time.Now()
	account.LastLoginAt = &now
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *mockAuthRepository, *verifEnv) {
	t.Helper()
	repo := newMockAuthRepository()
	env := newVerifEnv(t)
	codec := token.NewCodec("test-activation-secret", 72*time.Hour)
	emailVerif := NewEmailVerificationService(repo, env.gate, codec, env.dispatcher, testBaseURL, time.Minute)
	tm := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)
	return NewAuthService(repo, tm, emailVerif), repo, env
}

func TestAuthService_Register(t *testing.T) {
	svc, repo, env := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Email:     "Guest@Example.com",
		Password:  "Password1",
		FirstName: "Анна",
		LastName:  "Иванова",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Account)
	require.NotNil(t, result.TokenPair)

	assert.Equal(t, "guest@example.com", result.Account.Email)
	assert.False(t, result.Account.EmailConfirmed)
	assert.NotEqual(t, "Password1", result.Account.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.Account.PasswordHash), []byte("Password1")))

	// Письмо подтверждения уходит сразу после регистрации.
	waitForEmail(t, env, 1)
	assert.Equal(t, []string{"guest@example.com"}, env.email.last().To)

	assert.Len(t, repo.sessions, 1)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	in := RegisterInput{Email: "guest@example.com", Password: "Password1"}
	_, err := svc.Register(ctx, in, nil)
	require.NoError(t, err)

	_, err = svc.Register(ctx, in, nil)
	assert.Error(t, err)
}

func TestAuthService_RegisterInvalidEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "Password1"}, nil)
	assert.Error(t, err)
}

func TestAuthService_Login(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "guest@example.com", Password: "Password1"}, nil)
	require.NoError(t, err)

	result, err := svc.Login(ctx, LoginInput{Email: "guest@example.com", Password: "Password1"}, map[string]string{
		"user_agent": "test-agent",
		"ip":         "127.0.0.1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	assert.NotNil(t, repo.get(result.Account.ID).LastLoginAt)

	session := repo.sessions[result.TokenPair.RefreshToken]
	require.NotNil(t, session)
	require.NotNil(t, session.UserAgent)
	assert.Equal(t, "test-agent", *session.UserAgent)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "guest@example.com", Password: "Password1"}, nil)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "guest@example.com", Password: "wrong"}, nil)
	assert.Error(t, err)
}

func TestAuthService_LoginInactiveAccount(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "guest@example.com", Password: "Password1"}, nil)
	require.NoError(t, err)
	repo.get(result.Account.ID).IsActive = false

	_, err = svc.Login(ctx, LoginInput{Email: "guest@example.com", Password: "Password1"}, nil)
	assert.Error(t, err)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "guest@example.com", Password: "Password1"}, nil)
	require.NoError(t, err)

	oldRefresh := result.TokenPair.RefreshToken
	pair, err := svc.Refresh(ctx, oldRefresh, nil)
	require.NoError(t, err)
	assert.NotEqual(t, oldRefresh, pair.RefreshToken)

	// Старая сессия заменена новой.
	assert.Nil(t, repo.sessions[oldRefresh])
	assert.NotNil(t, repo.sessions[pair.RefreshToken])
}

func TestAuthService_RefreshGarbageToken(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Refresh(context.Background(), "not-a-jwt", nil)
	assert.Error(t, err)
}

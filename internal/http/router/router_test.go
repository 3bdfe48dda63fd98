package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhub/stayhub-backend/internal/config"
	"github.com/stayhub/stayhub-backend/internal/cooldown"
	"github.com/stayhub/stayhub-backend/internal/http/handlers"
	"github.com/stayhub/stayhub-backend/internal/logger"
	"github.com/stayhub/stayhub-backend/internal/models"
	"github.com/stayhub/stayhub-backend/internal/notify"
	"github.com/stayhub/stayhub-backend/internal/repository"
	"github.com/stayhub/stayhub-backend/internal/service"
	"github.com/stayhub/stayhub-backend/internal/token"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Init("error")
	os.Exit(m.Run())
}

// storeStub закрывает и AuthRepository, и интерфейсы аккаунтов сервисов.
type storeStub struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
}

func newStoreStub(accounts ...*models.Account) *storeStub {
	s := &storeStub{accounts: make(map[uuid.UUID]*models.Account)}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *storeStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *storeStub) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (s *storeStub) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
	return nil
}

func (s *storeStub) UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id].FirstName = firstName
	s.accounts[id].LastName = lastName
	return nil
}

func (s *storeStub) SetEmailConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id].EmailConfirmed = confirmed
	return nil
}

func (s *storeStub) SetPhone(ctx context.Context, id uuid.UUID, phone *string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id].PhoneNumber = phone
	s.accounts[id].PhoneConfirmed = confirmed
	return nil
}

func (s *storeStub) SetPhoneConfirmed(ctx context.Context, id uuid.UUID, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id].PhoneConfirmed = confirmed
	return nil
}

func (s *storeStub) UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error { return nil }

func (s *storeStub) CreateSession(ctx context.Context, session *models.Session) error { return nil }

func (s *storeStub) DeleteSession(ctx context.Context, refreshToken string) error { return nil }

type smsCodesStub struct {
	mu    sync.Mutex
	codes map[uuid.UUID]string
}

func (s *smsCodesStub) Upsert(ctx context.Context, accountID uuid.UUID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[accountID] = code
	return nil
}

func (s *smsCodesStub) Get(ctx context.Context, accountID uuid.UUID) (*models.SmsCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[accountID]
	if !ok {
		return nil, repository.ErrSmsCodeNotFound
	}
	return &models.SmsCode{AccountID: accountID, Code: code}, nil
}

type capturingEmail struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
}

func (c *capturingEmail) Send(ctx context.Context, msg notify.EmailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *capturingEmail) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *capturingEmail) last() notify.EmailMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[len(c.sent)-1]
}

type quietSMS struct{}

func (quietSMS) Send(ctx context.Context, msg notify.SMSMessage) (notify.SMSResult, error) {
	return notify.SMSResult{Status: "queued", MessageID: "SM-test"}, nil
}

// routerEnv собирает полный движок через SetupRouter с конфигом по умолчанию.
type routerEnv struct {
	cfg     *config.Config
	account *models.Account
	store   *storeStub
	email   *capturingEmail
	verif   *service.EmailVerificationService
	engine  *gin.Engine
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		Env:             "test",
		PublicBaseURL:   "http://localhost:8080",
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitLimit:  100,
		RateLimitPeriod: time.Minute,
	}

	email := &capturingEmail{}
	dispatcher := notify.NewQueueDispatcher(email, quietSMS{}, notify.Options{Workers: 1, QueueSize: 8})
	t.Cleanup(dispatcher.Close)

	account := &models.Account{ID: uuid.New(), Email: "guest@example.com", IsActive: true}
	store := newStoreStub(account)
	codes := &smsCodesStub{codes: make(map[uuid.UUID]string)}

	gate := cooldown.NewRedisGate(client)
	statuses := cooldown.NewRedisStatusStore(client)
	codec := token.NewCodec("router-test-secret", 72*time.Hour)
	tokens := service.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)

	emailVerif := service.NewEmailVerificationService(store, gate, codec, dispatcher, cfg.PublicBaseURL, time.Minute)
	phoneVerif := service.NewPhoneVerificationService(store, codes, gate, statuses, dispatcher, "+1555", "StayHub", time.Minute, 10*time.Second)
	authService := service.NewAuthService(store, tokens, emailVerif)
	profileService := service.NewProfileService(store, phoneVerif)

	engine := SetupRouter(
		cfg,
		handlers.NewAuthHandler(authService),
		handlers.NewAccountHandler(store, emailVerif),
		handlers.NewProfileHandler(store, profileService),
		handlers.NewVerificationHandler(store, phoneVerif),
		handlers.NewHealthHandler(nil, client),
		tokens,
	)

	return &routerEnv{
		cfg:     cfg,
		account: account,
		store:   store,
		email:   email,
		verif:   emailVerif,
		engine:  engine,
	}
}

// emailedPath достаёт из последнего письма путь ссылки подтверждения.
func (env *routerEnv) emailedPath(t *testing.T) string {
	t.Helper()

	require.Eventually(t, func() bool { return env.email.count() > 0 },
		2*time.Second, 10*time.Millisecond, "письмо не дошло до транспорта")

	body := env.email.last().PlainBody
	idx := strings.Index(body, "http")
	require.GreaterOrEqual(t, idx, 0, "в письме нет ссылки")

	link := strings.TrimSpace(body[idx:])
	require.True(t, strings.HasPrefix(link, env.cfg.PublicBaseURL), "ссылка строится не от базового URL")
	return strings.TrimPrefix(link, env.cfg.PublicBaseURL)
}

// Ссылка из письма должна открываться на том же роутере, который
// поднимает сервер, без ручной правки пути.
func TestEmailedActivationLinkResolves(t *testing.T) {
	env := newRouterEnv(t)

	require.NoError(t, env.verif.SendConfirmation(context.Background(), env.account))
	path := env.emailedPath(t)

	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	assert.Equal(t, http.StatusOK, rec.Code, "путь из письма: %s", path)

	updated, err := env.store.GetByID(context.Background(), env.account.ID)
	require.NoError(t, err)
	assert.True(t, updated.EmailConfirmed)
}

func TestActivationPathWithoutTrailingSlashRedirects(t *testing.T) {
	env := newRouterEnv(t)

	require.NoError(t, env.verif.SendConfirmation(context.Background(), env.account))
	path := strings.TrimSuffix(env.emailedPath(t), "/")

	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, path+"/", rec.Header().Get("Location"))
}

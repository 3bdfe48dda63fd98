package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/stayhub/stayhub-backend/internal/models"
)

// DefaultMaxAge - срок жизни ссылки подтверждения email.
const DefaultMaxAge = 72 * time.Hour

// Codec выпускает и проверяет одноразовые токены подтверждения email.
//
// Токен нигде не хранится: это отпечаток по id аккаунта, метке времени и
// текущему значению email_confirmed. Как только флаг переключается в true,
// отпечаток перестаёт сходиться и все ранее выданные токены гаснут сами -
// одноразовость по построению, без записи в базу.
type Codec struct {
	secret []byte
	maxAge time.Duration

	// now подменяется в тестах.
	now func() time.Time
}

// NewCodec создаёт кодек с заданным секретом и сроком жизни токена.
func NewCodec(secret string, maxAge time.Duration) *Codec {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Codec{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Issue выпускает токен вида "<ts36>-<hmac>" для аккаунта.
func (c *Codec) Issue(account *models.Account) string {
	ts := strconv.FormatInt(c.now().Unix(), 36)
	return ts + "-" + c.fingerprint(account, ts)
}

// Verify проверяет токен против текущего состояния аккаунта.
//
// Любая причина отказа (чужой аккаунт, подделка, истёкший срок, уже
// подтверждённый email) даёт одинаковый false: вызывающему не сообщается,
// какая именно проверка не сошлась.
func (c *Codec) Verify(account *models.Account, tok string) bool {
	if account == nil {
		return false
	}

	ts36, _, ok := strings.Cut(tok, "-")
	if !ok {
		return false
	}

	issuedUnix, err := strconv.ParseInt(ts36, 36, 64)
	if err != nil {
		return false
	}

	issued := time.Unix(issuedUnix, 0)
	now := c.now()
	if issued.After(now) || now.Sub(issued) > c.maxAge {
		return false
	}

	expected := ts36 + "-" + c.fingerprint(account, ts36)
	return hmac.Equal([]byte(expected), []byte(tok))
}

// fingerprint считает HMAC по id, метке времени и флагу подтверждения.
func (c *Codec) fingerprint(account *models.Account, ts36 string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(account.ID.String()))
	mac.Write([]byte(ts36))
	mac.Write([]byte(strconv.FormatBool(account.EmailConfirmed)))
	return hex.EncodeToString(mac.Sum(nil))
}

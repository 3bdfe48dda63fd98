package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stayhub/stayhub-backend/internal/logger"
)

// TwilioSMSSender отправляет SMS через REST API Twilio.
type TwilioSMSSender struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client

	// DryRun: не ходим к провайдеру, пишем SMS в лог. Используется в
	// development и когда креды не заданы.
	dryRun bool
}

// NewTwilioSMSSender создаёт SMS-транспорт.
func NewTwilioSMSSender(accountSID, authToken, baseURL string, dryRun bool) *TwilioSMSSender {
	return &TwilioSMSSender{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dryRun:     dryRun,
	}
}

type twilioMessageResponse struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

// Send отправляет одно сообщение и возвращает статус провайдера.
func (s *TwilioSMSSender) Send(ctx context.Context, msg SMSMessage) (SMSResult, error) {
	if s.dryRun {
		logger.Log.WithFields(map[string]interface{}{
			"to":   msg.To,
			"body": msg.Body,
		}).Info("sms: dry-run, сообщение не отправлено")
		return SMSResult{Status: "delivered", MessageID: "dry-run"}, nil
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	form := url.Values{
		"From": {msg.From},
		"To":   {msg.To},
		"Body": {msg.Body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SMSResult{}, fmt.Errorf("sms: запрос не собрался: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return SMSResult{}, fmt.Errorf("sms: запрос к провайдеру: %w", err)
	}
	defer resp.Body.Close()

	var payload twilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return SMSResult{}, fmt.Errorf("sms: ответ провайдера не распарсился: %w", err)
	}

	if resp.StatusCode >= 400 {
		errMsg := ""
		if payload.ErrorMessage != nil {
			errMsg = *payload.ErrorMessage
		}
		return SMSResult{}, fmt.Errorf("sms: провайдер вернул %d: %s", resp.StatusCode, errMsg)
	}

	return SMSResult{Status: payload.Status, MessageID: payload.SID}, nil
}

package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TwilioSender implementa Sender contra la API de mensajes de Twilio.
type TwilioSender struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	client     *http.Client
	logger     *zap.Logger
}

// NewTwilioSender construye un cliente apuntando a la API de Twilio.
func NewTwilioSender(baseURL, accountSID, authToken, from string, logger *zap.Logger) (*TwilioSender, error) {
	if strings.TrimSpace(accountSID) == "" || strings.TrimSpace(authToken) == "" {
		return nil, fmt.Errorf("twilio credentials are required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("twilio from number is required")
	}
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &TwilioSender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}, nil
}

func (s *TwilioSender) SendOTP(ctx context.Context, toPhone string, code string) error {
	if strings.TrimSpace(toPhone) == "" {
		return fmt.Errorf("to phone is required")
	}

	form := url.Values{}
	form.Set("To", toPhone)
	form.Set("From", s.from)
	form.Set("Body", fmt.Sprintf("Your OTP code is: %s. It expires in 5 minutes.", code))

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if s.logger != nil {
			s.logger.Warn("twilio error response",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", respBody),
			)
		}
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("twilio api error: %s", apiErr.Message)
		}
		return fmt.Errorf("twilio http error: status=%d", resp.StatusCode)
	}

	return nil
}

package sms

import (
	"context"
	"errors"
)

// Sender define la interfaz para despachar codigos OTP por SMS.
type Sender interface {
	SendOTP(ctx context.Context, toPhone string, code string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendOTP(_ context.Context, _ string, _ string) error {
	if s.reason == "" {
		return errors.New("sms sender disabled")
	}
	return errors.New(s.reason)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"gopkg.in/gomail.v2"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/utils"
)

var ErrInvalidPhone = errors.New("please enter a valid phone number")

type QuoteStore interface {
	CreateQuote(ctx context.Context, q *models.QuoteRequest) error
}

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type QuoteService struct {
	store  QuoteStore
	mailer MailSender
	from   string
	config *ConfigStore
	logger echo.Logger
	now    func() time.Time
}

// NewQuoteService accepts a nil mailer, in which case requests are only stored.
func NewQuoteService(store QuoteStore, mailer MailSender, from string, config *ConfigStore, logger echo.Logger) *QuoteService {
	return &QuoteService{store: store, mailer: mailer, from: from, config: config, logger: logger, now: time.Now}
}

// Submit stores the request and mails it to the office. Mail failures are logged only.
func (s *QuoteService) Submit(ctx context.Context, q *models.QuoteRequest) error {
	phone, err := utils.SanitizePhone(q.Phone)
	if err != nil {
		return ErrInvalidPhone
	}
	q.Phone = phone
	q.Name = utils.SanitizeInput(q.Name)
	q.PropertyType = utils.SanitizeInput(q.PropertyType)
	q.Message = utils.SanitizeInput(q.Message)
	q.Email = models.NormalizeEmail(q.Email)
	q.CreatedAt = s.now()
	if err := s.store.CreateQuote(ctx, q); err != nil {
		return err
	}

	to := s.config.Current().Contact.Email
	if s.mailer == nil || to == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	if q.Email != "" {
		m.SetHeader("Reply-To", q.Email)
	}
	m.SetHeader("Subject", fmt.Sprintf("Quote request: %s from %s", q.PropertyType, q.Name))
	m.SetBody("text/plain", fmt.Sprintf("Name: %s\nPhone: %s\nEmail: %s\nProperty type: %s\n\n%s\n",
		q.Name, q.Phone, q.Email, q.PropertyType, q.Message))

	if err := s.mailer.DialAndSend(m); err != nil {
		s.logger.Errorf("quote request mail not sent: %v", err)
	}
	return nil
}

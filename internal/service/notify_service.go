package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"bikeshare/internal/entities"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// EmailSender is satisfied by *sendgrid.Client.
type EmailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// SMSSender is satisfied by the Api field of *twilio.RestClient.
type SMSSender interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type NotifyConfig struct {
	FromEmail  string
	FromName   string
	FromNumber string
	// UserPhone receives the SMS receipt; empty disables SMS.
	UserPhone string
}

// NotifyService delivers booking receipts by email and SMS. Either channel
// may be absent.
type NotifyService struct {
	email  EmailSender
	sms    SMSSender
	cfg    NotifyConfig
	logger *zap.Logger
}

func NewNotifyService(email EmailSender, sms SMSSender, cfg NotifyConfig, logger *zap.Logger) *NotifyService {
	return &NotifyService{email: email, sms: sms, cfg: cfg, logger: logger}
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(apiKey string) EmailSender {
	if apiKey == "" {
		return nil
	}
	return sendgrid.NewSendClient(apiKey)
}

// NewTwilioSender returns nil unless both credentials are configured.
func NewTwilioSender(accountSID, authToken string) SMSSender {
	if accountSID == "" || authToken == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return client.Api
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<html><body>
<h2>Your bike is reserved</h2>
<p>Reservation code: <strong>{{.ReservationCode}}</strong></p>
<table>
<tr><td>Station</td><td>{{.StationName}}</td></tr>
<tr><td>Date</td><td>{{.DateFormatted}}</td></tr>
<tr><td>Time slot</td><td>{{.SlotLabel}}</td></tr>
<tr><td>Price</td><td>{{.Price}}</td></tr>
<tr><td>Status</td><td>{{.Status}}</td></tr>
</table>
<p>&copy; {{.CurrentYear}} Bikeshare</p>
</body></html>`))

func receiptDataOf(res entities.Reservation, userEmail string) entities.ReceiptData {
	return entities.ReceiptData{
		UserEmail:       userEmail,
		ReservationCode: res.ID,
		StationName:     res.StationName,
		DateFormatted:   res.Date.String(),
		SlotLabel:       res.TimeSlot.Label(),
		Price:           res.Price,
		Status:          string(res.Status),
		CurrentYear:     time.Now().Year(),
	}
}

func receiptText(d entities.ReceiptData) string {
	return fmt.Sprintf(
		"Your bike is reserved.\n\n"+
			"Reservation code: %s\n"+
			"Station: %s\n"+
			"Date: %s\n"+
			"Time slot: %s\n"+
			"Price: %d\n"+
			"Status: %s\n",
		d.ReservationCode, d.StationName, d.DateFormatted, d.SlotLabel, d.Price, d.Status)
}

func (s *NotifyService) SendReceipt(ctx context.Context, res entities.Reservation, userEmail string) error {
	data := receiptDataOf(res, userEmail)
	var errs []error

	if s.email != nil && userEmail != "" {
		if err := s.sendEmail(data); err != nil {
			errs = append(errs, err)
		}
	}
	if s.sms != nil && s.cfg.UserPhone != "" {
		if err := s.sendSMS(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *NotifyService) sendEmail(d entities.ReceiptData) error {
	if s.cfg.FromEmail == "" {
		return errors.New("SENDGRID_FROM_EMAIL is not configured")
	}
	var html bytes.Buffer
	if err := receiptTemplate.Execute(&html, d); err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}

	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail("", d.UserEmail)
	subject := fmt.Sprintf("Your bike reservation %s is confirmed", d.ReservationCode)
	message := mail.NewSingleEmail(from, subject, to, receiptText(d), html.String())

	response, err := s.email.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send receipt email: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	s.logger.Info("receipt email sent", zap.String("reservation_id", d.ReservationCode))
	return nil
}

func (s *NotifyService) sendSMS(d entities.ReceiptData) error {
	if s.cfg.FromNumber == "" {
		return errors.New("TWILIO_FROM_NUMBER is not configured")
	}
	if !strings.HasPrefix(s.cfg.UserPhone, "+") {
		s.logger.Warn("phone number is not in E.164 format", zap.String("phone", s.cfg.UserPhone))
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(s.cfg.UserPhone)
	params.SetFrom(s.cfg.FromNumber)
	params.SetBody(fmt.Sprintf("Bikeshare: reservation %s confirmed at %s on %s, %s. Price: %d.",
		d.ReservationCode, d.StationName, d.DateFormatted, d.SlotLabel, d.Price))

	resp, err := s.sms.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send receipt SMS: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.Info("receipt SMS sent", zap.String("sid", *resp.Sid))
	}
	return nil
}

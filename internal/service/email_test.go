package service_test

import (
	"context"
	"errors"
	"testing"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To, ToName, Subject, Body string
}

type captureSender struct {
	sent []sentMail
	err  error
}

func (c *captureSender) Send(ctx context.Context, to, toName, subject, body string) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMail{To: to, ToName: toName, Subject: subject, Body: body})
	return nil
}

func TestEmailService_Templates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		send        func(service.EmailService) error
		wantSubject string
		wantBody    []string
		notInBody   []string
	}{
		{
			name:        "Welcome pending landlord",
			send:        func(s service.EmailService) error { return s.SendWelcome(ctx, "a@example.com", "Ana", true) },
			wantSubject: "Welcome to EquipRent",
			wantBody:    []string{"Hello Ana,", "validate it shortly", "The EquipRent Team"},
			notInBody:   []string{"browsing equipment"},
		},
		{
			name:        "Account rejected with reason",
			send:        func(s service.EmailService) error { return s.SendAccountDecision(ctx, "a@example.com", "Ana", false, "missing documents") },
			wantSubject: "Your EquipRent account was rejected",
			wantBody:    []string{"Reason: missing documents"},
		},
		{
			name:        "Listing approved",
			send:        func(s service.EmailService) error { return s.SendListingDecision(ctx, "a@example.com", "Ana", "Concrete mixer", true, "") },
			wantSubject: `Listing "Concrete mixer" approved`,
			wantBody:    []string{"is now live"},
			notInBody:   []string{"Reason:"},
		},
		{
			name: "Rental request shows total",
			send: func(s service.EmailService) error {
				return s.SendRentalRequest(ctx, "o@example.com", "Owner", "Rui", "Drill", "RNT-1", decimal.NewFromInt(250))
			},
			wantSubject: "New rental request RNT-1",
			wantBody:    []string{"Rui wants to rent \"Drill\"", "250.00"},
		},
		{
			name: "Rental status is lowercase",
			send: func(s service.EmailService) error {
				return s.SendRentalStatus(ctx, "r@example.com", "Rui", "Drill", "RNT-1", domain.RentalStatusApproved, "")
			},
			wantSubject: "Rental RNT-1 is now approved",
			notInBody:   []string{"Note:"},
		},
		{
			name:        "Receipt rejected",
			send:        func(s service.EmailService) error { return s.SendReceiptDecision(ctx, "r@example.com", "Rui", "RNT-1", false, "blurry") },
			wantSubject: "Payment receipt for RNT-1 rejected",
			wantBody:    []string{"upload a valid receipt", "Reason: blurry"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &captureSender{}
			err := tt.send(service.NewEmailService(sender, ""))
			require.NoError(t, err)
			require.Len(t, sender.sent, 1)
			assert.Equal(t, tt.wantSubject, sender.sent[0].Subject)
			for _, s := range tt.wantBody {
				assert.Contains(t, sender.sent[0].Body, s)
			}
			for _, s := range tt.notInBody {
				assert.NotContains(t, sender.sent[0].Body, s)
			}
		})
	}
}

func TestEmailService_SenderError(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp unavailable")}
	svc := service.NewEmailService(sender, "Rentals")
	err := svc.SendWelcome(context.Background(), "a@example.com", "Ana", false)
	assert.EqualError(t, err, "smtp unavailable")
}

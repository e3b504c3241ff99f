package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/agency-leads/internal/leads"
)

type mockEmailSender struct {
	sent   []EmailMessage
	failOn string
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.failOn != "" && msg.To == m.failOn {
		return errors.New("mock email error")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func sampleLead() leads.Lead {
	return leads.Lead{
		ID: "0192f0c8-0000-7000-8000-000000000001",
		Submission: leads.Submission{
			Name:    "Jo",
			Email:   "a@b.com",
			Phone:   "9876543210",
			Service: "web-design",
			Message: "Need a new website for my <bakery>",
		},
		Status:    leads.StatusNew,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLeadNotifier_Disabled(t *testing.T) {
	sender := &mockEmailSender{}

	require.NoError(t, NewLeadNotifier(nil, []string{"sales@agency.example"}, nil).NotifyLead(context.Background(), sampleLead()))
	require.NoError(t, NewLeadNotifier(sender, []string{" "}, nil).NotifyLead(context.Background(), sampleLead()))
	assert.Empty(t, sender.sent)
}

func TestLeadNotifier_SendsToEveryRecipient(t *testing.T) {
	sender := &mockEmailSender{}
	n := NewLeadNotifier(sender, []string{"sales@agency.example", "owner@agency.example"}, nil)

	require.NoError(t, n.NotifyLead(context.Background(), sampleLead()))
	require.Len(t, sender.sent, 2)

	msg := sender.sent[0]
	assert.Equal(t, "sales@agency.example", msg.To)
	assert.Equal(t, "owner@agency.example", sender.sent[1].To)
	assert.Equal(t, "a@b.com", msg.ReplyTo)
	assert.Equal(t, CategoryLeadNotification, msg.Category)
	assert.Equal(t, "New lead - Jo (web-design)", msg.Subject)
	assert.Contains(t, msg.Body, "Phone: 9876543210")
	assert.NotContains(t, msg.Body, "Company:")
	assert.Contains(t, msg.HTML, "&lt;bakery&gt;")
	assert.False(t, strings.Contains(msg.HTML, "<bakery>"))
}

func TestLeadNotifier_PartialFailure(t *testing.T) {
	sender := &mockEmailSender{failOn: "owner@agency.example"}
	n := NewLeadNotifier(sender, []string{"sales@agency.example", "owner@agency.example"}, nil)

	err := n.NotifyLead(context.Background(), sampleLead())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Len(t, sender.sent, 1)
}

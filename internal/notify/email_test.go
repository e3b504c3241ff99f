package notify

import (
	"context"
	"errors"
	"testing"
)

func TestFromAddress(t *testing.T) {
	cases := []struct {
		from From
		want string
	}{
		{From{Email: "hello@agency.example"}, `"Agency Website" <hello@agency.example>`},
		{From{Email: "hello@agency.example", Name: "Sales"}, `"Sales" <hello@agency.example>`},
		{From{Email: "hello@agency.example", Name: `Smith, "Jo"`}, `"Smith, \"Jo\"" <hello@agency.example>`},
	}
	for _, tc := range cases {
		if got := tc.from.withDefaults().Address(); got != tc.want {
			t.Errorf("Address(%+v) = %s, want %s", tc.from, got, tc.want)
		}
	}
}

func TestEmailMessageValidate(t *testing.T) {
	ok := EmailMessage{To: "sales@agency.example", Subject: "New lead", Body: "plain"}
	if err := ok.validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}

	htmlOnly := ok
	htmlOnly.Body, htmlOnly.HTML = "", "<p>x</p>"
	if err := htmlOnly.validate(); err != nil {
		t.Fatalf("expected html-only message to be valid, got %v", err)
	}

	cases := map[string]struct {
		mutate func(*EmailMessage)
		want   error
	}{
		"no recipient": {func(m *EmailMessage) { m.To = " " }, errNoRecipient},
		"no subject":   {func(m *EmailMessage) { m.Subject = "" }, errNoSubject},
		"no content":   {func(m *EmailMessage) { m.Body = "" }, errNoContent},
	}
	for name, tc := range cases {
		msg := ok
		tc.mutate(&msg)
		if err := msg.validate(); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", name, tc.want, err)
		}
	}
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	if sender := NewSendGridSender("  ", From{Email: "hello@agency.example"}, nil); sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender("test-key", From{Email: "hello@agency.example"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.from.Name != DefaultFromName {
		t.Errorf("expected default from name %q, got %q", DefaultFromName, sender.from.Name)
	}
}

func TestSendGridSender_BuildMessage(t *testing.T) {
	sender := NewSendGridSender("test-key", From{Email: "hello@agency.example", Name: "Sales"}, nil)

	message := sender.buildMessage(EmailMessage{
		To:       "inbox@agency.example",
		ReplyTo:  "jo@bakery.example",
		Subject:  "New lead",
		Body:     "plain",
		Category: CategoryLeadNotification,
	})

	if message.From.Address != "hello@agency.example" || message.From.Name != "Sales" {
		t.Fatalf("unexpected from: %+v", message.From)
	}
	if message.ReplyTo == nil || message.ReplyTo.Address != "jo@bakery.example" {
		t.Fatalf("expected reply-to, got %+v", message.ReplyTo)
	}
	if len(message.Categories) != 1 || message.Categories[0] != CategoryLeadNotification {
		t.Fatalf("expected category, got %v", message.Categories)
	}
	if len(message.Content) != 2 || message.Content[1].Value != "plain" {
		t.Fatalf("expected the plain body reused as html, got %+v", message.Content)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	err := sender.Send(context.Background(), EmailMessage{To: "inbox@agency.example", Subject: "Test", Body: "Test body"})
	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestSendGridSender_Send_RejectsInvalidMessage(t *testing.T) {
	sender := NewSendGridSender("test-key", From{Email: "hello@agency.example"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{Subject: "x", Body: "y"}); !errors.Is(err, errNoRecipient) {
		t.Fatalf("expected errNoRecipient, got %v", err)
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	if err := sender.Send(context.Background(), EmailMessage{To: "inbox@agency.example", Subject: "Test", Body: "Test body"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
	if err := sender.Send(context.Background(), EmailMessage{To: "inbox@agency.example", Body: "Test body"}); !errors.Is(err, errNoSubject) {
		t.Errorf("expected errNoSubject, got %v", err)
	}
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

// LeadNotifier emails the agency inbox about each accepted lead.
type LeadNotifier struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewLeadNotifier creates a notifier. With no sender or no recipients it
// is a no-op.
func NewLeadNotifier(email EmailSender, recipients []string, logger *logging.Logger) *LeadNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	var clean []string
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	return &LeadNotifier{email: email, recipients: clean, logger: logger}
}

// Enabled reports whether the notifier will send anything.
func (n *LeadNotifier) Enabled() bool {
	return n != nil && n.email != nil && len(n.recipients) > 0
}

// NotifyLead implements leads.Notifier. Every recipient is attempted; the
// returned error joins the failures.
func (n *LeadNotifier) NotifyLead(ctx context.Context, lead leads.Lead) error {
	if !n.Enabled() {
		n.logger.Debug("notify: lead notifier disabled, skipping", "lead_id", lead.ID)
		return nil
	}

	msg := EmailMessage{
		ReplyTo:  lead.Email,
		Category: CategoryLeadNotification,
		Subject:  fmt.Sprintf("New lead - %s (%s)", lead.Name, lead.Service),
		Body:     formatLeadText(lead),
		HTML:     formatLeadHTML(lead),
	}

	var errs []error
	for _, recipient := range n.recipients {
		msg.To = recipient
		if err := n.email.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d of %d lead email(s) failed: %w", len(errs), len(n.recipients), errors.Join(errs...))
	}
	return nil
}

type leadField struct {
	label string
	value string
}

func leadFields(lead leads.Lead) []leadField {
	fields := []leadField{
		{"Name", lead.Name},
		{"Email", lead.Email},
		{"Phone", lead.Phone},
		{"Company", lead.Company},
		{"Service", lead.Service},
		{"Category", lead.Category},
		{"Source", lead.Source},
		{"Received", lead.CreatedAt.UTC().Format(time.RFC1123)},
		{"Lead ID", lead.ID},
	}
	out := fields[:0]
	for _, f := range fields {
		if f.value != "" {
			out = append(out, f)
		}
	}
	return out
}

func formatLeadText(lead leads.Lead) string {
	var b strings.Builder
	b.WriteString("A new lead has come in!\n\n")
	for _, f := range leadFields(lead) {
		fmt.Fprintf(&b, "%s: %s\n", f.label, f.value)
	}
	b.WriteString("\nMessage:\n")
	b.WriteString(lead.Message)
	b.WriteString("\n")
	return b.String()
}

func formatLeadHTML(lead leads.Lead) string {
	var b strings.Builder
	b.WriteString("<h2>New lead</h2><table>")
	for _, f := range leadFields(lead) {
		fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", html.EscapeString(f.label), html.EscapeString(f.value))
	}
	b.WriteString("</table><h3>Message</h3><p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(lead.Message), "\n", "<br>"))
	b.WriteString("</p>")
	return b.String()
}

var _ leads.Notifier = (*LeadNotifier)(nil)

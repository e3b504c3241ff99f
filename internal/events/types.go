package events

import (
	"time"

	"github.com/wolfman30/agency-leads/internal/leads"
)

// LeadCreatedV1 announces an accepted lead.
type LeadCreatedV1 struct {
	LeadID    string    `json:"lead_id"`
	Intake    string    `json:"intake"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company,omitempty"`
	Service   string    `json:"service"`
	Category  string    `json:"category,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadCreatedType is the event type of LeadCreatedV1.
const LeadCreatedType = "lead.created.v1"

func (LeadCreatedV1) EventType() string { return LeadCreatedType }

func (e LeadCreatedV1) AggregateID() string { return e.LeadID }

// NewLeadCreatedV1 builds the event for lead. The free-text message is left
// out; consumers that need it read the lead store.
func NewLeadCreatedV1(intake string, lead leads.Lead) LeadCreatedV1 {
	return LeadCreatedV1{
		LeadID:    lead.ID,
		Intake:    intake,
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Company:   lead.Company,
		Service:   lead.Service,
		Category:  lead.Category,
		Source:    lead.Source,
		CreatedAt: lead.CreatedAt,
	}
}

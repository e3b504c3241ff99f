package leads

import "time"

// Status tracks where a lead sits in the sales follow-up. It is set to
// StatusNew on creation and only changed by operator tooling.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusConverted Status = "converted"
	StatusClosed    Status = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusConverted, StatusClosed:
		return true
	}
	return false
}

// Submission is a validated contact or lead form payload.
type Submission struct {
	Name     string `json:"name" dynamodbav:"name"`
	Email    string `json:"email" dynamodbav:"email"`
	Phone    string `json:"phone" dynamodbav:"phone"`
	Company  string `json:"company,omitempty" dynamodbav:"company,omitempty"`
	Service  string `json:"service" dynamodbav:"service"`
	Category string `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Message  string `json:"message" dynamodbav:"message"`
	Source   string `json:"source,omitempty" dynamodbav:"source,omitempty"`
}

// Lead is a persisted submission. ID and CreatedAt never change after creation.
type Lead struct {
	ID string `json:"id" dynamodbav:"id"`
	Submission
	Status    Status    `json:"status" dynamodbav:"status"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
}

// newLead stamps a submission with its identity and creation time.
func newLead(id string, sub Submission, now time.Time) Lead {
	return Lead{
		ID:         id,
		Submission: sub,
		Status:     StatusNew,
		CreatedAt:  now.UTC(),
	}
}

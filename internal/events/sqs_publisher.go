package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/wolfman30/agency-leads/internal/leads"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends lead events to an SQS queue.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
	intake   string
}

// NewSQSPublisher creates a publisher for one intake.
func NewSQSPublisher(client sqsAPI, queueURL, intake string) *SQSPublisher {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSPublisher{client: client, queueURL: queueURL, intake: intake}
}

// PublishLeadCreated implements leads.EventPublisher.
func (p *SQSPublisher) PublishLeadCreated(ctx context.Context, lead leads.Lead) error {
	evt := NewLeadCreatedV1(p.intake, lead)
	env, err := NewEnvelope(evt,
		WithEventID(LeadEventID(lead.ID, evt.EventType())),
		WithTimestamp(lead.CreatedAt),
		WithCorrelationID(lead.ID),
	)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(env.EventType),
			},
			"event_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(env.EventID.String()),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("events: failed to send SQS message: %w", err)
	}
	return nil
}

var _ leads.EventPublisher = (*SQSPublisher)(nil)

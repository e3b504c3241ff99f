package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/agency-leads/internal/leads"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func testLead() leads.Lead {
	return leads.Lead{
		ID: "0192f0c8-0000-7000-8000-000000000001",
		Submission: leads.Submission{
			Name:    "Jo",
			Email:   "a@b.com",
			Phone:   "9876543210",
			Service: "web-design",
			Message: "Need a new website for my bakery",
		},
		Status:    leads.StatusNew,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQSPublisher_PublishLeadCreated(t *testing.T) {
	client := &fakeSQS{}
	pub := NewSQSPublisher(client, "https://sqs.local/leads", "lead")
	lead := testLead()

	require.NoError(t, pub.PublishLeadCreated(context.Background(), lead))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "https://sqs.local/leads", aws.ToString(in.QueueUrl))
	assert.Equal(t, "lead.created.v1", aws.ToString(in.MessageAttributes["event_type"].StringValue))

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &env))
	assert.Equal(t, "lead:"+lead.ID, env.Aggregate)
	assert.Equal(t, lead.CreatedAt.UnixMicro(), env.TimestampMicros)

	var evt LeadCreatedV1
	require.NoError(t, json.Unmarshal(env.Payload, &evt))
	assert.Equal(t, lead.ID, evt.LeadID)
	assert.Equal(t, "lead", evt.Intake)
	assert.Equal(t, "web-design", evt.Service)
}

func TestSQSPublisher_SendError(t *testing.T) {
	pub := NewSQSPublisher(&fakeSQS{err: errors.New("queue gone")}, "https://sqs.local/leads", "contact")

	err := pub.PublishLeadCreated(context.Background(), testLead())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue gone")
}

func TestNewSQSPublisher_Panics(t *testing.T) {
	assert.Panics(t, func() { NewSQSPublisher(nil, "url", "lead") })
	assert.Panics(t, func() { NewSQSPublisher(&fakeSQS{}, "", "lead") })
}

func TestSQSPublisher_ResendKeepsEventID(t *testing.T) {
	client := &fakeSQS{}
	pub := NewSQSPublisher(client, "https://sqs.local/leads", "lead")
	lead := testLead()

	require.NoError(t, pub.PublishLeadCreated(context.Background(), lead))
	require.NoError(t, pub.PublishLeadCreated(context.Background(), lead))
	require.Len(t, client.inputs, 2)

	var first, second Envelope
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.inputs[0].MessageBody)), &first))
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(client.inputs[1].MessageBody)), &second))
	assert.Equal(t, first.EventID, second.EventID)
	assert.Equal(t, LeadEventID(lead.ID, LeadCreatedType), first.EventID)
	assert.Equal(t, first.EventID.String(), aws.ToString(client.inputs[0].MessageAttributes["event_id"].StringValue))
	assert.Equal(t, lead.ID, first.CorrelationID)
}

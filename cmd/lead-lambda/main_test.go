package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

const validBody = `{"name":"Lambda Lead","email":"lambda@example.com","phone":"555-123-4567","service":"seo","message":"Interested in an audit."}`

func newTestApp(t *testing.T) (*app, *leads.MemoryStore) {
	t.Helper()
	store := leads.NewMemoryStore()
	logger := logging.New("error")
	return &app{
		lead: leads.NewIntake(leads.IntakeConfig{
			Name:    "lead",
			Limiter: leads.NewMemoryRateLimiter(3, time.Minute),
			Store:   store,
			Logger:  logger,
		}),
		contact: leads.NewIntake(leads.IntakeConfig{
			Name:          "contact",
			Limiter:       leads.NewMemoryRateLimiter(3, time.Minute),
			Store:         store,
			DefaultSource: "contact-form",
			Logger:        logger,
		}),
		maxBody: 1 << 10,
		logger:  logger,
	}, store
}

func request(method, path, body, sourceIP string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: sourceIP,
			},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	a, _ := newTestApp(t)

	resp, err := a.handle(context.Background(), request(http.MethodGet, "/health", "", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestHandleRejectsNonPost(t *testing.T) {
	a, _ := newTestApp(t)

	resp, _ := a.handle(context.Background(), request(http.MethodGet, "/api/leads", "", ""))
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
	}
}

func TestHandleUnknownPath(t *testing.T) {
	a, _ := newTestApp(t)

	resp, _ := a.handle(context.Background(), request(http.MethodPost, "/api/other", validBody, ""))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestHandleSubmitLead(t *testing.T) {
	a, store := newTestApp(t)

	resp, err := a.handle(context.Background(), request(http.MethodPost, "/api/leads", validBody, "203.0.113.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, resp.Body)
	}
	var body leads.SubmitResponse
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.LeadID == "" {
		t.Fatalf("unexpected body %+v", body)
	}
	if resp.Headers["content-type"] != "application/json" {
		t.Fatalf("expected json content type, got %q", resp.Headers["content-type"])
	}

	all, _ := store.LoadAll(context.Background())
	if len(all) != 1 || all[0].ID != body.LeadID {
		t.Fatalf("expected lead to be stored, got %+v", all)
	}
}

func TestHandleBase64Body(t *testing.T) {
	a, _ := newTestApp(t)

	evt := request(http.MethodPost, "/api/contact", base64.StdEncoding.EncodeToString([]byte(validBody)), "203.0.113.5")
	evt.IsBase64Encoded = true

	resp, _ := a.handle(context.Background(), evt)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, resp.Body)
	}
}

func TestHandleRateLimitBySourceIP(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, _ := a.handle(ctx, request(http.MethodPost, "/api/leads", validBody, "203.0.113.5"))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submission %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}
	resp, _ := a.handle(ctx, request(http.MethodPost, "/api/leads", validBody, "203.0.113.5"))
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, resp.StatusCode)
	}
	if resp.Headers["retry-after"] == "" {
		t.Fatalf("expected retry-after header")
	}

	resp, _ = a.handle(ctx, request(http.MethodPost, "/api/leads", validBody, "203.0.113.6"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("other source ip: expected 200, got %d", resp.StatusCode)
	}
}

func TestHandleValidationFailure(t *testing.T) {
	a, _ := newTestApp(t)

	resp, _ := a.handle(context.Background(), request(http.MethodPost, "/api/leads", `{"name":"x"}`, "203.0.113.5"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	var body leads.ErrorResponse
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Details["email"] != "is required" {
		t.Fatalf("expected email detail, got %+v", body.Details)
	}
}

func TestClientKeyPrefersForwardedFor(t *testing.T) {
	evt := request(http.MethodPost, "/api/leads", "", "10.0.0.1")
	evt.Headers = map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}

	if got := clientKey(evt); got != "198.51.100.7" {
		t.Fatalf("expected forwarded client, got %s", got)
	}

	evt.Headers = nil
	if got := clientKey(evt); got != "10.0.0.1" {
		t.Fatalf("expected source ip fallback, got %s", got)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/agency-leads/cmd/mainconfig"
	"github.com/wolfman30/agency-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/agency-leads/internal/config"
	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

type app struct {
	lead    *leads.Intake
	contact *leads.Intake
	maxBody int64
	logger  *logging.Logger
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	var clients *bootstrap.AWSClients
	if cfg.NeedsAWS() {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			panic(err)
		}
		clients = bootstrap.NewAWSClients(awsCfg, cfg.AWSEndpointOverride != "")
	}
	deps := bootstrap.ServicesDeps{AWS: clients}
	if cfg.RateLimitBackend == "redis" {
		deps.Redis = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	}

	services, err := bootstrap.BuildServices(ctx, cfg, deps, logger)
	if err != nil {
		panic(err)
	}

	a := &app{
		lead:    services.Lead,
		contact: services.Contact,
		maxBody: cfg.MaxRequestBodySize,
		logger:  logger,
	}
	lambda.Start(a.handle)
}

func (a *app) handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	if path == "/health" || path == "/_health" {
		return jsonResponse(http.StatusOK, map[string]string{"status": "ok"}, nil), nil
	}

	var intake *leads.Intake
	switch path {
	case "/api/leads":
		intake = a.lead
	case "/api/contact":
		intake = a.contact
	default:
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}
	if method != http.MethodPost {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		reply := leads.RenderSubmit(leads.SubmitResult{}, err)
		return jsonResponse(reply.Status, reply.Body, reply.Headers), nil
	}

	clientKey := clientKey(evt)
	var reader io.Reader = bytes.NewReader(body)
	if a.maxBody > 0 {
		reader = http.MaxBytesReader(nil, io.NopCloser(reader), a.maxBody)
	}

	result, err := intake.SubmitJSON(ctx, reader, clientKey, intake.Now())
	if err != nil {
		a.logger.Error("failed to process submission", "error", err, "intake", intake.Name(), "client_key", clientKey)
	}
	reply := leads.RenderSubmit(result, err)
	return jsonResponse(reply.Status, reply.Body, reply.Headers), nil
}

// clientKey prefers proxy headers and falls back to the API Gateway source IP.
func clientKey(evt events.APIGatewayV2HTTPRequest) string {
	key := leads.ClientKeyFromHeaders(headerValue(evt.Headers, "x-forwarded-for"), headerValue(evt.Headers, "x-real-ip"))
	if key == leads.UnknownClientKey {
		return leads.ClientKeyFromAddr(evt.RequestContext.HTTP.SourceIP)
	}
	return key
}

func jsonResponse(status int, body any, headers map[string]string) events.APIGatewayV2HTTPResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload = []byte(`{"success":false,"error":"Internal server error"}`)
	}
	out := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(payload),
		Headers:    map[string]string{"content-type": "application/json"},
	}
	for k, v := range headers {
		out.Headers[strings.ToLower(k)] = v
	}
	return out
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

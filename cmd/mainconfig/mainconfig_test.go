package mainconfig

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/agency-leads/internal/config"
)

func TestLoadAWSConfigEndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load aws config: %v", err)
	}
	if awsCfg.Region != "us-east-1" {
		t.Fatalf("expected region us-east-1, got %s", awsCfg.Region)
	}

	for _, service := range []string{sqs.ServiceID, s3.ServiceID} {
		ep, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(service, "us-east-1")
		if err != nil {
			t.Fatalf("%s: resolve endpoint: %v", service, err)
		}
		if ep.URL != "http://localhost:4566" {
			t.Fatalf("%s: expected override endpoint, got %s", service, ep.URL)
		}
	}

	if _, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint("bedrock", "us-east-1"); err == nil {
		t.Fatalf("expected unknown services to fall through")
	} else if _, ok := err.(*aws.EndpointNotFoundError); !ok {
		t.Fatalf("expected EndpointNotFoundError, got %T", err)
	}

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "test" {
		t.Fatalf("expected static credentials, got %s", creds.AccessKeyID)
	}
}

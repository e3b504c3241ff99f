package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// AWSClients holds the service clients built from one aws.Config.
type AWSClients struct {
	DynamoDB *dynamodb.Client
	S3       *s3.Client
	SQS      *sqs.Client
	SES      *sesv2.Client
}

// NewAWSClients builds every client the lead pipeline may use. S3 uses
// path-style addressing when an endpoint override (LocalStack) is set.
func NewAWSClients(awsCfg aws.Config, pathStyleS3 bool) *AWSClients {
	return &AWSClients{
		DynamoDB: dynamodb.NewFromConfig(awsCfg),
		S3: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = pathStyleS3
		}),
		SQS: sqs.NewFromConfig(awsCfg),
		SES: sesv2.NewFromConfig(awsCfg),
	}
}

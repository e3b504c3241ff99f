package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps the lead array in a single S3 object, using the same layout
// as FileStore. S3 has no append, so each write is a read-modify-write.
type S3Store struct {
	mu     sync.Mutex
	client S3API
	bucket string
	key    string
}

// NewS3Store creates a store writing bucket/key.
func NewS3Store(client S3API, bucket, key string) *S3Store {
	if client == nil {
		panic("leads: s3 client cannot be nil")
	}
	if bucket == "" || key == "" {
		panic("leads: s3 bucket and key required")
	}
	return &S3Store{client: client, bucket: bucket, key: key}
}

// LoadAll reads the object; a missing object is an empty store.
func (s *S3Store) LoadAll(ctx context.Context) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Append adds lead and rewrites the object.
func (s *S3Store) Append(ctx context.Context, lead Lead) error {
	ctx, span := storeTracer.Start(ctx, "leads.s3.append")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	for _, l := range existing {
		if l.ID == lead.ID {
			return ErrDuplicateLead
		}
	}
	data, err := json.MarshalIndent(append(existing, lead), "", "  ")
	if err != nil {
		return fmt.Errorf("leads: encode: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("leads: s3 put %s: %w", s.key, err)
	}
	return nil
}

func (s *S3Store) read(ctx context.Context) ([]Lead, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return []Lead{}, nil
		}
		return nil, fmt.Errorf("leads: s3 get %s: %w", s.key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("leads: s3 read %s: %w", s.key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Lead{}, nil
	}
	var leads []Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("leads: decode %s: %w", s.key, err)
	}
	if leads == nil {
		leads = []Lead{}
	}
	return leads, nil
}

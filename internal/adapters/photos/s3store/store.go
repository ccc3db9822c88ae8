// Package s3store guarda las fotos en un bucket S3 (o compatible: MinIO, R2).
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	defaultRegion = "us-east-1"
	keyPrefix     = "cats/"
)

type Options struct {
	Bucket    string
	Region    string
	Endpoint  string // vacío = AWS; con valor = path-style contra ese endpoint
	AccessKey string
	SecretKey string

	// PublicBaseURL es la base de las URLs devueltas (CDN o bucket público).
	PublicBaseURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	client     putObjectAPI
	bucket     string
	publicBase string
}

func New(ctx context.Context, opts Options) (*Store, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 store: bucket required")
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return newWithClient(client, bucket, publicBase(opts.PublicBaseURL, endpoint, bucket, region)), nil
}

func newWithClient(client putObjectAPI, bucket, base string) *Store {
	return &Store{client: client, bucket: bucket, publicBase: strings.TrimRight(base, "/")}
}

func (s *Store) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", errors.New("s3 store: invalid name")
	}
	key := keyPrefix + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicBase + "/" + key, nil
}

func publicBase(configured, endpoint, bucket, region string) string {
	if b := strings.TrimSpace(configured); b != "" {
		return b
	}
	if endpoint != "" {
		return strings.TrimRight(endpoint, "/") + "/" + bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

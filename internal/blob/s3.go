// Package blob archives raw uploads in S3-compatible object storage
// (Cloudflare R2 by default).
package blob

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver stores a copy of an uploaded payload and returns its object key.
type Archiver interface {
	Archive(ctx context.Context, userID uint, payload []byte) (string, error)
}

// putObjectAPI is the part of *s3.Client the archiver uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client putObjectAPI
	bucket string
	newID  func() string
}

func NewS3Archiver(client putObjectAPI, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, newID: uuid.NewString}
}

// Options holds the connection settings for NewS3Client.
type Options struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Region          string
}

// NewS3Client builds an S3 client with static credentials for an
// S3-compatible endpoint.
func NewS3Client(ctx context.Context, opts Options) (*s3.Client, error) {
	// a BuildableClient still lets AWS_CA_BUNDLE add root CAs
	httpClient := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		if tr.TLSClientConfig == nil {
			tr.TLSClientConfig = &tls.Config{}
		}
		tr.TLSClientConfig.MinVersion = tls.VersionTLS12
		tr.TLSClientConfig.MaxVersion = tls.VersionTLS13
	})

	region := opts.Region
	if region == "" {
		region = "auto"
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithHTTPClient(httpClient),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.AccessKeySecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Key returns the object key used for an upload of userID.
func Key(userID uint, id string) string {
	return fmt.Sprintf("uploads/%d/%s.json", userID, id)
}

func (a *S3Archiver) Archive(ctx context.Context, userID uint, payload []byte) (string, error) {
	key := Key(userID, a.newID())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

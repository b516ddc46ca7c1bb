// Package upload issues presigned S3 URLs for chunked recording uploads.
package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/podcraft/studio-service/internal/config"
)

// Part identifies one uploaded chunk of a multipart upload.
type Part struct {
	ETag       string `json:"etag" binding:"required"`
	PartNumber int32  `json:"part_number" binding:"required"`
}

// Presigner issues presigned URLs against the recordings bucket and drives
// multipart uploads. The upload bytes themselves never pass through this
// service; clients talk to S3 directly.
type Presigner struct {
	s3             *s3.Client
	presign        *s3.PresignClient
	bucket         string
	ttl            time.Duration
	combinedPrefix string
}

// New creates a presigner from service config.
func New(ctx context.Context, cfg *config.Config) (*Presigner, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &Presigner{
		s3:             client,
		presign:        s3.NewPresignClient(client),
		bucket:         cfg.S3.Bucket,
		ttl:            cfg.S3.PresignTTL,
		combinedPrefix: cfg.S3.CombinedPrefix,
	}, nil
}

// NewFileKey generates a random object key for a recording.
func NewFileKey() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// UploadURL returns a presigned PUT URL and the generated object key.
func (p *Presigner) UploadURL(ctx context.Context, contentType string) (url, key string, err error) {
	key = NewFileKey()
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", "", err
	}
	return req.URL, key, nil
}

// DownloadURL returns a presigned GET URL for an uploaded recording.
func (p *Presigner) DownloadURL(ctx context.Context, key string) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// CombinedDownloadURL returns a presigned GET URL for a combined artifact.
func (p *Presigner) CombinedDownloadURL(ctx context.Context, key string) (string, error) {
	return p.DownloadURL(ctx, p.combinedPrefix+key)
}

// StartMultipart opens a multipart upload for a key and returns the upload id.
func (p *Presigner) StartMultipart(ctx context.Context, key, contentType string) (string, error) {
	out, err := p.s3.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.UploadId), nil
}

// PartURL returns a presigned URL for uploading one part.
func (p *Presigner) PartURL(ctx context.Context, key, uploadID string, partNumber int32) (string, error) {
	req, err := p.presign.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(p.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// CompleteMultipart finishes a multipart upload from the parts the client
// uploaded.
func (p *Presigner) CompleteMultipart(ctx context.Context, key, uploadID string, parts []Part) error {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int32(part.PartNumber),
		})
	}
	_, err := p.s3.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(p.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	return err
}

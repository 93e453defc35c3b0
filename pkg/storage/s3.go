// Package storage issues presigned S3 upload URLs so clients send image bytes
// straight to the bucket instead of through the API.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignExpiry = 60 * time.Second

// Upload is a one-shot write URL plus the public URL the object will have
type Upload struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
}

type S3Uploader struct {
	presigner *s3.PresignClient
	bucket    string
	region    string
}

// NewS3Uploader loads the default AWS credential chain for region
func NewS3Uploader(ctx context.Context, region, bucket string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3UploaderFromClient(s3.NewFromConfig(cfg), region, bucket), nil
}

func NewS3UploaderFromClient(client *s3.Client, region, bucket string) *S3Uploader {
	return &S3Uploader{presigner: s3.NewPresignClient(client), bucket: bucket, region: region}
}

// PresignUpload reserves a fresh key under folder and presigns a PUT for it
func (u *S3Uploader) PresignUpload(ctx context.Context, folder, contentType string) (*Upload, error) {
	ext := "jpg"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		ext = sub
	}
	key := fmt.Sprintf("%s/%s.%s", folder, uuid.NewString(), ext)

	req, err := u.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &Upload{
		UploadURL: req.URL,
		FileURL:   fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key),
		Key:       key,
	}, nil
}

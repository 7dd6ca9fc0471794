// Package storage implements the object-storage gateway: time-limited upload
// URLs, public retrieval URLs, and deletion of payloads.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/opensource-kemini/kemini-backend/internal/server/config"
)

// Gateway is the narrow contract services depend on. All operations are keyed
// by the opaque object-key string computed by the caller.
type Gateway interface {
	// PresignUpload returns a short-lived URL authorizing a direct PUT of the
	// object behind key.
	PresignUpload(ctx context.Context, key string) (string, error)
	// PublicURL derives the permanent retrieval URL for key. Pure function:
	// no network call, no expiry.
	PublicURL(key string) string
	// Delete removes the object. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
)

// S3Gateway talks to an S3-compatible backend (AWS S3 in production, MinIO in
// development when S3BaseEndpoint is set).
type S3Gateway struct {
	config *sc.Config
}

func NewS3Gateway(config *sc.Config) *S3Gateway {
	return &S3Gateway{config: config}
}

func (g *S3Gateway) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(g.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			g.config.S3AccessKey,
			g.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if g.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(g.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}

func (g *S3Gateway) PresignUpload(ctx context.Context, key string) (string, error) {

	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}
	presignClient := newS3PresignClient(client)

	bucket := g.config.S3Bucket

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(g.config.UploadURLTTL))

	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// PublicURL mirrors the provider's virtual-hosted URL scheme. URLs are never
// stored; they are always derived from the key on demand.
func (g *S3Gateway) PublicURL(key string) string {
	if g.config.S3BaseEndpoint != "" {
		return fmt.Sprintf("%s/%s/%s",
			strings.TrimRight(g.config.S3BaseEndpoint, "/"), g.config.S3Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		g.config.S3Bucket, g.config.S3Region, key)
}

// Delete removes the object behind key. S3 DeleteObject succeeds for keys
// that do not exist, which matches the required idempotent semantics.
func (g *S3Gateway) Delete(ctx context.Context, key string) error {

	client, err := g.getClient(ctx)
	if err != nil {
		return err
	}

	bucket := g.config.S3Bucket

	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	return err
}

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"challenge-server/internal/apperr"
	"challenge-server/internal/config"
	"challenge-server/internal/metrics"
	"challenge-server/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	DefaultURLExpiry = 120 * time.Second
	defaultPath      = "misc"
	urlField         = "signedUrl"
)

type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type ObjectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type UploadRequest struct {
	FileName string
	Path     string
	FileType string
	Metadata map[string]string
}

// Gateway hands out short-lived pre-signed URLs so clients talk to the bucket
// directly; file bytes never pass through this server.
type Gateway struct {
	bucket    string
	expiry    time.Duration
	presigner Presigner
	deleter   ObjectDeleter
}

func NewGateway(bucket string, expiry time.Duration, presigner Presigner, deleter ObjectDeleter) *Gateway {
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	return &Gateway{
		bucket:    bucket,
		expiry:    expiry,
		presigner: presigner,
		deleter:   deleter,
	}
}

// NewS3Client builds an S3 client from config. Static credentials are used
// when both keys are set, otherwise the default AWS chain applies. A custom
// endpoint switches to path-style addressing for S3-compatible servers.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3Gateway(client *s3.Client, bucket string, expiry time.Duration) *Gateway {
	return NewGateway(bucket, expiry, s3.NewPresignClient(client), client)
}

// BuildFileKey returns "{path}/{uuid}-{name}" with all whitespace removed from
// the name. An empty path or "/" maps to "misc".
func BuildFileKey(path, fileName string) string {
	name := strings.Join(strings.Fields(fileName), "")
	dir := strings.Trim(strings.TrimSpace(path), "/")
	if dir == "" {
		dir = defaultPath
	}
	return fmt.Sprintf("%s/%s-%s", dir, uuid.NewString(), name)
}

func (g *Gateway) GetUploadURL(ctx context.Context, req UploadRequest) (*models.SignedURL, error) {
	fileKey := BuildFileKey(req.Path, req.FileName)

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.FileType != "" {
		metadata["file-type"] = req.FileType
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(fileKey),
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}

	signed, err := g.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(g.expiry))
	if err != nil {
		metrics.PresignFailures.WithLabelValues("put").Inc()
		return nil, presignError(err)
	}

	return &models.SignedURL{SignedURL: signed.URL, FileKey: fileKey}, nil
}

func (g *Gateway) GetViewURL(ctx context.Context, fileKey string) (*models.SignedURL, error) {
	signed, err := g.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(g.expiry))
	if err != nil {
		metrics.PresignFailures.WithLabelValues("get").Inc()
		return nil, presignError(err)
	}

	return &models.SignedURL{SignedURL: signed.URL, FileKey: fileKey}, nil
}

func (g *Gateway) DeleteObject(ctx context.Context, fileKey string) error {
	_, err := g.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(fileKey),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", fileKey, err)
	}
	return nil
}

func presignError(err error) error {
	return apperr.Wrap(err, apperr.CodeUnavailable, urlField,
		fmt.Sprintf("Error: could not generate S3 presigned url - %v", err))
}

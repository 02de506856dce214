package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/logiflow/dispatch-backend/config"
	"github.com/logiflow/dispatch-backend/types"
)

// objectPutter is the part of *s3.Client the archive uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// StatementArchive stores paid settlement statements in an S3-compatible bucket.
type StatementArchive struct {
	client     objectPutter
	bucketName string
}

// NewStatementArchive builds the S3 client. Static keys are used when
// configured, otherwise the default AWS credential chain.
func NewStatementArchive(ctx context.Context, cfg *config.StatementArchiveConfig) (*StatementArchive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("statement archive bucket is required")
	}

	withEndpoint := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}

	var client *s3.Client
	if cfg.AccessKeyID != "" {
		opts := s3.Options{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
		withEndpoint(&opts)
		client = s3.New(opts)
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg, withEndpoint)
	}

	return &StatementArchive{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

// StatementKey is statements/<yyyy-mm>/<driver>/<settlement>.csv.
func StatementKey(s *types.Settlement) (string, error) {
	key := fmt.Sprintf("statements/%s/%s/%s.csv", s.YearMonth, s.DriverID, s.ID)
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." || segment == "" {
			return "", fmt.Errorf("invalid statement key %q", key)
		}
	}
	return key, nil
}

func (a *StatementArchive) ArchiveStatement(ctx context.Context, s *types.Settlement, statement []byte) (string, error) {
	key, err := StatementKey(s)
	if err != nil {
		return "", err
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(statement),
		ContentLength: aws.Int64(int64(len(statement))),
		ContentType:   aws.String("text/csv; charset=utf-8"),
		Metadata: map[string]string{
			"settlement-id": s.ID,
			"driver-id":     s.DriverID,
			"final-amount":  s.FinalAmount.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object failed: %w", err)
	}
	return key, nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores images in a bucket, served from PublicBaseURL.
type S3 struct {
	Client        objectAPI
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

// S3Config configures NewS3.
type S3Config struct {
	Region        string
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

// NewS3 creates an S3 backend with credentials from the default AWS chain.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	return &S3{
		Client:        s3.NewFromConfig(awsCfg),
		Bucket:        cfg.Bucket,
		Prefix:        cfg.Prefix,
		PublicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put uploads r under Prefix with a uuid key.
func (s *S3) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	key := uuid.NewString() + safeExt(in.Filename)
	if s.Prefix != "" {
		key = strings.Trim(s.Prefix, "/") + "/" + key
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(in.ContentType),
	}
	if in.Size > 0 {
		input.ContentLength = aws.Int64(in.Size)
	}
	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return PutResult{}, err
	}

	url := s.PublicBaseURL + "/" + key
	return PutResult{Key: key, URL: url}, nil
}

// Delete removes the object of key.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// KeyFromURL returns the object key of a URL issued by Put.
func (s *S3) KeyFromURL(url string) (string, bool) {
	return trimPrefix(url, s.PublicBaseURL)
}

func (s *S3) String() string { return fmt.Sprintf("s3(%s/%s)", s.Bucket, s.Prefix) }

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
)

const defaultLinkExpiry = 15 * time.Minute

// Config holds S3-compatible endpoint settings.
type Config struct {
	Endpoint   string
	Region     string
	AccessKey  string
	SecretKey  string
	Bucket     string
	LinkExpiry time.Duration
}

// Storage is an S3-compatible blob storage backend. Works against AWS S3 and
// MinIO-style endpoints (path-style addressing).
type Storage struct {
	client     *awss3.S3
	bucket     string
	linkExpiry time.Duration
}

// NewStorage constructs an S3 storage client.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage: bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg := &aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	expiry := cfg.LinkExpiry
	if expiry <= 0 {
		expiry = defaultLinkExpiry
	}
	return &Storage{client: awss3.New(sess), bucket: cfg.Bucket, linkExpiry: expiry}, nil
}

// Put stores a payload under key.
func (s *Storage) Put(ctx context.Context, key string, payload io.Reader) error {
	if s == nil || s.client == nil {
		return errors.New("s3 storage: nil client")
	}
	data, err := io.ReadAll(payload)
	if err != nil {
		return err
	}
	_, err = s.client.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

// Get returns the payload stored under key, or (nil, nil) when the key does
// not exist.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("s3 storage: nil client")
	}
	out, err := s.client.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == awss3.ErrCodeNoSuchKey {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Delete removes the object under key. Deleting a missing key is not an
// error, matching S3 semantics.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return errors.New("s3 storage: nil client")
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// PresignedURL issues a time-limited download link for key. Expiry policy
// lives here, not in the archive service.
func (s *Storage) PresignedURL(_ context.Context, key string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("s3 storage: nil client")
	}
	req, _ := s.client.GetObjectRequest(&awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return req.Presign(s.linkExpiry)
}

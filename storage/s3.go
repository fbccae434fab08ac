package storage

import (
	"fmt"
	"strings"
	"time"

	"studyplan_go/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ArchiveStore wraps S3 access for archived audit log bundles.
type ArchiveStore struct {
	s3Client *s3.S3
	bucket   string
}

// NewArchiveStore creates a store bound to the configured archive bucket.
func NewArchiveStore() (*ArchiveStore, error) {
	awsCfg := &aws.Config{
		Region: aws.String(config.AppConfig.AWSRegion),
	}
	if config.AppConfig.AWSAccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(
			config.AppConfig.AWSAccessKeyID,
			config.AppConfig.AWSSecretAccessKey,
			"",
		)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	return &ArchiveStore{
		s3Client: s3.New(sess),
		bucket:   config.AppConfig.S3BucketName,
	}, nil
}

// PresignDownload returns a time-limited URL for fetching an archive object.
func (s *ArchiveStore) PresignDownload(key string, expire time.Duration) (string, error) {
	key = s.normalizeKey(key)
	if key == "" {
		return "", fmt.Errorf("invalid archive key")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expire)
	if err != nil {
		return "", fmt.Errorf("failed to presign archive download: %v", err)
	}
	return url, nil
}

// DeleteArchive removes an archive object, e.g. after a retention purge.
func (s *ArchiveStore) DeleteArchive(key string) error {
	key = s.normalizeKey(key)
	if key == "" {
		return fmt.Errorf("invalid archive key")
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// normalizeKey accepts either a bare key or a full object URL.
func (s *ArchiveStore) normalizeKey(key string) string {
	if !strings.Contains(key, ".amazonaws.com/") {
		return key
	}
	parts := strings.Split(key, ".amazonaws.com/")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// Package storage persists per-pass audit artifacts: page screenshots
// from before and after the pass, pass summaries, and escalation
// transcripts, keyed by pass id in object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/applyforge/applyforge/internal/domain"
)

// MinIOConfig contains MinIO connection settings
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
}

// AuditStore persists pass artifacts in object storage. A nil
// AuditStore is valid and stores nothing; auditing is optional.
type AuditStore struct {
	client     *minio.Client
	bucketName string
}

// NewAuditStore creates an audit store over MinIO
func NewAuditStore(cfg MinIOConfig) (*AuditStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &AuditStore{
		client:     client,
		bucketName: cfg.BucketName,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *AuditStore) EnsureBucket(ctx context.Context) error {
	if s == nil {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("checking bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
	}

	return nil
}

// Screenshot stages within a pass.
const (
	StageInitial = "initial"
	StageFinal   = "final"
)

// passKey builds the object key for one artifact of one pass.
func passKey(passID uuid.UUID, name string) string {
	return fmt.Sprintf("passes/%s/%s", passID, name)
}

// SaveScreenshot stores a page screenshot for a pass, one object per
// stage.
func (s *AuditStore) SaveScreenshot(ctx context.Context, passID uuid.UUID, stage string, png []byte) error {
	if s == nil {
		return nil
	}
	_, err := s.upload(ctx, passKey(passID, stage+".png"), png, "image/png")
	return err
}

// SaveSummary stores the pass summary document.
func (s *AuditStore) SaveSummary(ctx context.Context, passID uuid.UUID, site string, summary domain.Summary) error {
	if s == nil {
		return nil
	}
	doc := struct {
		PassID     string         `json:"pass_id"`
		Site       string         `json:"site"`
		FinishedAt time.Time      `json:"finished_at"`
		Summary    domain.Summary `json:"summary"`
	}{
		PassID:     passID.String(),
		Site:       site,
		FinishedAt: time.Now().UTC(),
		Summary:    summary,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	_, err = s.upload(ctx, passKey(passID, "summary.json"), data, "application/json")
	return err
}

// SaveTranscript stores the escalation question/answer transcript.
func (s *AuditStore) SaveTranscript(ctx context.Context, passID uuid.UUID, questions []domain.AIQuestion, answers []domain.AIAnswer) error {
	if s == nil {
		return nil
	}
	doc := struct {
		PassID    string              `json:"pass_id"`
		Questions []domain.AIQuestion `json:"questions"`
		Answers   []domain.AIAnswer   `json:"answers"`
	}{
		PassID:    passID.String(),
		Questions: questions,
		Answers:   answers,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling transcript: %w", err)
	}
	_, err = s.upload(ctx, passKey(passID, "escalation.json"), data, "application/json")
	return err
}

// upload uploads an object and returns its S3-style URI
func (s *AuditStore) upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	reader := bytes.NewReader(data)

	_, err := s.client.PutObject(ctx, s.bucketName, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading object: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucketName, key), nil
}

// presignExpiry bounds how long an artifact download link stays valid.
const presignExpiry = 15 * time.Minute

// GetPresignedURL returns a presigned URL for downloading an artifact
func (s *AuditStore) GetPresignedURL(ctx context.Context, key string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("audit store not configured")
	}
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, key, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("generating presigned URL: %w", err)
	}
	return url.String(), nil
}

// ListPassArtifacts lists the stored artifact keys for one pass
func (s *AuditStore) ListPassArtifacts(ctx context.Context, passID uuid.UUID) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	var keys []string

	objectCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    fmt.Sprintf("passes/%s/", passID),
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, object.Err
		}
		keys = append(keys, object.Key)
	}

	return keys, nil
}

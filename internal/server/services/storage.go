package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	sc "github.com/RulzOrg/resumate-sub008/internal/server/config"
	"github.com/RulzOrg/resumate-sub008/internal/server/models"
	"github.com/RulzOrg/resumate-sub008/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// StorageService manages resume artifact uploads: metadata rows in PostgreSQL
// plus presigned URLs against an S3-compatible backend. File bodies never pass
// through the server.
type StorageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

// NewStorageService constructs a StorageService.
func NewStorageService(db *sql.DB, rm repomanager.RepositoryManager, config *sc.Config) *StorageService {
	return &StorageService{
		db:          db,
		repomanager: rm,
		config:      config,
	}
}

// GetRandomStorageKey returns a date-partitioned object key for a new upload.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("resumes/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *StorageService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetPresignedPutUrl returns a fresh storage key and a presigned upload URL
// for it.
func (s *StorageService) GetPresignedPutUrl(ctx context.Context) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetPresignedGetUrl returns a presigned download URL for an existing object.
func (s *StorageService) GetPresignedGetUrl(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// ResumeUpload is the result of registering a new resume: the metadata row
// plus a presigned PUT URL the client uploads the file body to.
type ResumeUpload struct {
	Resume    *models.Resume `json:"resume"`
	UploadURL string         `json:"upload_url"`
}

// CreateUploadParams carries the caller-supplied resume metadata.
type CreateUploadParams struct {
	Title     string
	Filename  string
	MimeType  string
	SizeBytes int64
}

// CreateUpload registers a resume artifact in the pending state and returns a
// presigned PUT URL for the file body.
func (s *StorageService) CreateUpload(ctx context.Context, userID string, p CreateUploadParams) (*ResumeUpload, error) {
	switch {
	case userID == "":
		return nil, fmt.Errorf("%w: user id is required", common.ErrorValidation)
	case p.Filename == "":
		return nil, fmt.Errorf("%w: filename is required", common.ErrorValidation)
	}
	if p.Title == "" {
		p.Title = p.Filename
	}

	key, url, err := s.GetPresignedPutUrl(ctx)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	resume := &models.Resume{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        p.Title,
		Filename:     p.Filename,
		StorageKey:   key,
		MimeType:     p.MimeType,
		SizeBytes:    p.SizeBytes,
		UploadStatus: models.UploadPending,
	}

	created, err := s.repomanager.Resumes(s.db).Create(ctx, resume)
	if err != nil {
		return nil, err
	}

	return &ResumeUpload{Resume: created, UploadURL: url}, nil
}

// ConfirmUpload marks a pending resume artifact as uploaded once the client
// has finished the presigned PUT.
func (s *StorageService) ConfirmUpload(ctx context.Context, id, userID string) error {
	return s.repomanager.Resumes(s.db).MarkUploaded(ctx, id, userID)
}

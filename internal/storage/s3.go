package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/MimeLyc/caption-studio/pkg/log"
)

const (
	DefaultVideoPrefix      = "uploads/videos/"
	DefaultTranscriptPrefix = "transcripts/"
	DefaultURLExpiry        = time.Hour
)

// UploadTarget is a presigned location the client PUTs the video bytes to.
type UploadTarget struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint overrides the S3 endpoint and switches to path-style
	// addressing (MinIO, localstack).
	Endpoint         string
	VideoPrefix      string
	TranscriptPrefix string
	URLExpiry        time.Duration
}

// S3 stores uploaded videos and transcript archives in one bucket.
type S3 struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	httpClient *http.Client

	bucket           string
	videoPrefix      string
	transcriptPrefix string
	expiry           time.Duration
	newID            func() string
}

type Option func(*S3)

func WithHTTPClient(c *http.Client) Option {
	return func(s *S3) {
		if c != nil {
			s.httpClient = c
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *S3) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(ctx context.Context, cfg Config, opts ...Option) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	s := &S3{
		client:           client,
		presigner:        s3.NewPresignClient(client),
		httpClient:       &http.Client{Timeout: 10 * time.Minute},
		bucket:           cfg.Bucket,
		videoPrefix:      withDefault(cfg.VideoPrefix, DefaultVideoPrefix),
		transcriptPrefix: withDefault(cfg.TranscriptPrefix, DefaultTranscriptPrefix),
		expiry:           cfg.URLExpiry,
		newID:            uuid.NewString,
	}
	if s.expiry <= 0 {
		s.expiry = DefaultURLExpiry
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *S3) Bucket() string      { return s.bucket }
func (s *S3) VideoPrefix() string { return s.videoPrefix }

// RequestUploadTarget allocates a fresh video key and presigns a PUT for it.
func (s *S3) RequestUploadTarget(ctx context.Context) (UploadTarget, error) {
	key := s.videoPrefix + s.newID() + ".mp4"
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return UploadTarget{}, fmt.Errorf("presign upload for %s: %w", key, err)
	}
	return UploadTarget{Key: key, URL: req.URL}, nil
}

// PutObject uploads body to a presigned URL.
func (s *S3) PutObject(ctx context.Context, uploadURL string, body io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload object: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// SignedPlaybackURL presigns a GET for key.
func (s *S3) SignedPlaybackURL(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign playback for %s: %w", key, err)
	}
	return req.URL, nil
}

// ListObjects returns every object key under prefix, following pagination.
// Directory placeholder keys are skipped.
func (s *S3) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
	}
	log.Debug("Listed %d objects under s3://%s/%s", len(keys), s.bucket, prefix)
	return keys, nil
}

// Download copies the object at key into w.
func (s *S3) Download(ctx context.Context, key string, w io.Writer) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("read object %s: %w", key, err)
	}
	return nil
}

// TranscriptKey allocates a fresh key for a transcript archive.
func (s *S3) TranscriptKey() string {
	return path.Join(s.transcriptPrefix, s.newID()+".json")
}

// PutJSON stores v as a JSON document at key.
func (s *S3) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

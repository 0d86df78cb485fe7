package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/utils"
)

// S3Mirror copies finished recordings to s3://bucket/prefix.
type S3Mirror struct {
	Bucket   string
	Prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

func ParseS3URI(uri string) (string, string, error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("invalid S3 URI %q: missing s3:// scheme", uri)
	}
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q: missing bucket", uri)
	}
	prefix := ""
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}
	return parts[0], prefix, nil
}

func NewS3Mirror(ctx context.Context, uri, profile string) (*S3Mirror, error) {
	bucket, prefix, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	opts := []func(*config.LoadOptions) error{config.WithRetryMode("adaptive")}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Mirror{
		Bucket:   bucket,
		Prefix:   prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// Key is the object key a local file maps to.
func (m *S3Mirror) Key(localPath string) string {
	return path.Join(m.Prefix, filepath.Base(localPath))
}

// Upload skips objects that already exist with the same size.
func (m *S3Mirror) Upload(ctx context.Context, localPath string) (string, error) {
	key := m.Key(localPath)
	info, err := os.Stat(localPath)
	if err != nil {
		return key, fmt.Errorf("error reading %s: %w", localPath, err)
	}
	head, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(key),
	})
	if err == nil && head.ContentLength != nil && *head.ContentLength == info.Size() {
		log.Debug().Str("op", "archive/s3").Msgf("s3://%s/%s already mirrored", m.Bucket, key)
		return key, nil
	}
	file, err := os.Open(localPath)
	if err != nil {
		return key, fmt.Errorf("error opening %s: %w", localPath, err)
	}
	defer file.Close()
	_, err = m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return key, fmt.Errorf("error uploading to s3://%s/%s: %w", m.Bucket, key, err)
	}
	log.Info().Str("op", "archive/s3").Msgf("mirrored %s to s3://%s/%s", localPath, m.Bucket, key)
	return key, nil
}

// MirrorCompleted uploads every completed job's file. Failures are
// collected per file and never stop the remaining uploads.
func (m *S3Mirror) MirrorCompleted(ctx context.Context, batch utils.BatchResult) []utils.MirrorResult {
	var results []utils.MirrorResult
	for _, r := range batch.Completed() {
		key, err := m.Upload(ctx, r.Job.OutputPath)
		if err != nil {
			log.Warn().Str("op", "archive/s3").Err(err).Msg("mirror failed")
		}
		results = append(results, utils.MirrorResult{Path: r.Job.OutputPath, Key: key, Err: err})
	}
	return results
}

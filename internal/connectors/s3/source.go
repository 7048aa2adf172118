// Package s3 provides a FileSource over an S3 bucket. A folder is a key prefix.
package s3

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/custodia-labs/sercha-ingest/internal/connectors/mimetype"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.FileSource = (*Source)(nil)

// SourceType is the registry key for this source.
const SourceType = "s3"

// MaxDownloadSize bounds a single object download.
const MaxDownloadSize = 50 * 1024 * 1024

// Errors.
var (
	// ErrBucketRequired indicates no bucket was configured.
	ErrBucketRequired = errors.New("s3: bucket is required")

	// ErrTooLarge indicates an object exceeded MaxDownloadSize.
	ErrTooLarge = errors.New("s3: object exceeds size limit")
)

// API is the subset of the S3 client the source uses.
type API interface {
	s3.ListObjectsV2APIClient
	manager.DownloadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Source lists objects under a prefix and downloads them.
type Source struct {
	client     API
	downloader *manager.Downloader
	bucket     string
}

// New creates an S3 source over a client.
func New(client API, bucket string) *Source {
	return &Source{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
	}
}

// Build is the FileSourceBuilder for S3.
// Static keys are used when set; otherwise the default AWS credential chain applies.
func Build(ctx context.Context, settings domain.SourceSettings) (driven.FileSource, error) {
	cfg := settings.S3
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

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

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// S3-compatible stores (MinIO, R2) need path-style addressing.
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return New(client, cfg.Bucket), nil
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return SourceType
}

// ListFilesInFolder lists every object under the folderID prefix.
// Directory marker keys are skipped. Results are ordered by key.
func (s *Source) ListFilesInFolder(ctx context.Context, folderID string) ([]domain.SourceFile, error) {
	prefix := normalisePrefix(folderID)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var files []domain.SourceFile
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapError(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			f := domain.SourceFile{
				ID:       key,
				Name:     path.Base(key),
				MIMEType: mimetype.Detect(key),
				Path:     strings.TrimPrefix(key, prefix),
				Size:     aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				f.ModifiedTime = obj.LastModified.UTC()
			}
			files = append(files, f)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ID < files[j].ID
	})
	logger.Debug("S3 prefix s3://%s/%s: %d objects", s.bucket, prefix, len(files))
	return files, nil
}

// DownloadFile fetches an object by key using the transfer manager.
func (s *Source) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return nil, wrapError(err)
	}
	size := aws.ToInt64(head.ContentLength)
	if size > MaxDownloadSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, fileID, size)
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, size))
	if _, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	}); err != nil {
		return nil, wrapError(err)
	}
	return buf.Bytes(), nil
}

// ExportDocument is not supported; objects have no native formats.
func (s *Source) ExportDocument(_ context.Context, fileID, _ string) ([]byte, error) {
	return nil, fmt.Errorf("%w: s3 cannot export %s", domain.ErrUnsupportedType, fileID)
}

// IsSupportedFile reports whether the MIME type may carry text.
func (s *Source) IsSupportedFile(mimeType string) bool {
	return mimetype.IsTextCandidate(mimeType)
}

// IsExportable always reports false.
func (s *Source) IsExportable(string) (string, bool) {
	return "", false
}

// Close releases resources.
func (s *Source) Close() error {
	return nil
}

// normalisePrefix turns a folder ID into a key prefix ending in "/".
// An empty folder lists the whole bucket.
func normalisePrefix(folderID string) string {
	p := strings.TrimLeft(folderID, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// wrapError maps S3 error codes onto domain sentinels.
func wrapError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded":
			return fmt.Errorf("s3: %w: %w", domain.ErrRateLimited, err)
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("s3: %w: %w", domain.ErrNotFound, err)
		}
	}
	return fmt.Errorf("s3: %w", err)
}

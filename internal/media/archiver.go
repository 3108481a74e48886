package media

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Archiver copies provider-hosted media into storage the product owns.
// Provider URLs expire; archived copies do not.
type Archiver interface {
	// Archive downloads sourceURL and stores it under the job's media
	// prefix, returning the durable URL. kind distinguishes the artifacts
	// of one job ("video", "thumbnail").
	Archive(ctx context.Context, jobID, sourceURL, kind string) (string, error)
}

type s3Archiver struct {
	client     *s3.Client
	httpClient *http.Client
	bucket     string
	baseURL    string
	logger     zerolog.Logger
}

// NewS3Archiver creates an Archiver backed by an S3-compatible bucket.
// baseURL is the public prefix under which archived objects are served.
func NewS3Archiver(client *s3.Client, bucket, baseURL string, logger zerolog.Logger) Archiver {
	return &s3Archiver{
		client:     client,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		bucket:     bucket,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With().Str("service", "MediaArchiver").Logger(),
	}
}

func (a *s3Archiver) Archive(ctx context.Context, jobID, sourceURL, kind string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s media: %w", kind, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s media: HTTP %d", kind, resp.StatusCode)
	}

	key := ObjectKey(jobID, sourceURL, kind)
	// PutObject streams the download straight through.
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          resp.Body,
		ContentType:   aws.String(contentTypeFor(key, resp.Header.Get("Content-Type"))),
		ContentLength: contentLength(resp.ContentLength),
	})
	if err != nil {
		return "", fmt.Errorf("store %s media for job %s: %w", kind, jobID, err)
	}

	a.logger.Info().Str("job_id", jobID).Str("key", key).Msg("Archived media artifact")
	return a.baseURL + "/" + key, nil
}

// ObjectKey builds the bucket key for one artifact, preserving the source
// file extension.
func ObjectKey(jobID, sourceURL, kind string) string {
	ext := path.Ext(strings.SplitN(path.Base(sourceURL), "?", 2)[0])
	if ext == "" {
		if kind == "thumbnail" {
			ext = ".jpg"
		} else {
			ext = ".mp4"
		}
	}
	return fmt.Sprintf("videos/%s/%s%s", jobID, kind, ext)
}

func contentTypeFor(key, fallback string) string {
	switch path.Ext(key) {
	case ".mp4":
		return "video/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	if fallback != "" {
		return fallback
	}
	return "application/octet-stream"
}

func contentLength(n int64) *int64 {
	if n < 0 {
		return nil
	}
	return &n
}

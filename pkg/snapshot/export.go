package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	rerrors "github.com/vango-dev/reactive/internal/errors"
)

// Exporter writes a snapshot somewhere and returns where it went.
type Exporter interface {
	Export(ctx context.Context, g *Graph) (string, error)
}

// FileExporter writes snapshots to a local file.
type FileExporter struct {
	Path     string
	Compress bool
}

// Export writes g to e.Path, creating parent directories. The file is
// written to a temporary name first and renamed into place.
func (e *FileExporter) Export(ctx context.Context, g *Graph) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := Marshal(g, e.Compress)
	if err != nil {
		return "", rerrors.FromError(err, rerrors.CodeExportFailed)
	}
	if dir := filepath.Dir(e.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", rerrors.New(rerrors.CodeExportFailed).Wrap(err)
		}
	}
	tmp := e.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", rerrors.New(rerrors.CodeExportFailed).Wrap(err)
	}
	if err := os.Rename(tmp, e.Path); err != nil {
		os.Remove(tmp)
		return "", rerrors.New(rerrors.CodeExportFailed).Wrap(err)
	}
	return e.Path, nil
}

// PutObjectAPI is the subset of *s3.Client used by S3Exporter.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads snapshots to S3.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	exp := &snapshot.S3Exporter{
//	    Client: s3.NewFromConfig(cfg),
//	    Bucket: "graphs",
//	    Key:    "app/latest.json.zst",
//	    Compress: true,
//	}
type S3Exporter struct {
	Client   PutObjectAPI
	Bucket   string
	Key      string
	Compress bool
}

// Export uploads g and returns its s3:// URL.
func (e *S3Exporter) Export(ctx context.Context, g *Graph) (string, error) {
	data, err := Marshal(g, e.Compress)
	if err != nil {
		return "", rerrors.FromError(err, rerrors.CodeExportFailed)
	}

	contentType := "application/json"
	if e.Compress {
		contentType = "application/zstd"
	}
	_, err = e.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.Bucket),
		Key:         aws.String(e.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"snapshot-id": g.ID,
		},
	})
	if err != nil {
		return "", rerrors.New(rerrors.CodeExportFailed).
			WithDetail(fmt.Sprintf("PutObject s3://%s/%s failed", e.Bucket, e.Key)).
			Wrap(err)
	}
	return "s3://" + e.Bucket + "/" + e.Key, nil
}

// Destination is a parsed export target.
type Destination struct {
	// Scheme is "file" or "s3".
	Scheme string
	Path   string
	Bucket string
	Key    string
}

// ParseDestination parses a file path or an s3://bucket/key URL.
func ParseDestination(dest string) (Destination, error) {
	if dest == "" {
		return Destination{}, rerrors.New(rerrors.CodeExportDestination).WithDetail("empty destination")
	}
	if !strings.Contains(dest, "://") {
		return Destination{Scheme: "file", Path: dest}, nil
	}

	u, err := url.Parse(dest)
	if err != nil {
		return Destination{}, rerrors.New(rerrors.CodeExportDestination).Wrap(err)
	}
	switch u.Scheme {
	case "file":
		return Destination{Scheme: "file", Path: u.Host + u.Path}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Destination{}, rerrors.New(rerrors.CodeExportDestination).
				WithDetail("s3 destinations need a bucket and a key: s3://bucket/key")
		}
		return Destination{Scheme: "s3", Bucket: u.Host, Key: key}, nil
	}
	return Destination{}, rerrors.New(rerrors.CodeExportDestination).
		WithDetail("unsupported scheme " + u.Scheme)
}

// String formats the destination back into its URL form.
func (d Destination) String() string {
	if d.Scheme == "s3" {
		return "s3://" + d.Bucket + "/" + d.Key
	}
	return d.Path
}

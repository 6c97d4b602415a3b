package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/config"
)

// Upload folders used by the server.
const (
	FolderPosts      = "posts"
	FolderUserImages = "userImages"
	FolderStories    = "workoutStories"
)

// File is a media file ready to upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder string, f File) (string, error)
}

// HTTPUploader sends files to POST /api/files/upload.
type HTTPUploader struct {
	c *Client
}

var _ Uploader = (*HTTPUploader)(nil)

// Uploader returns the server-side uploader.
func (c *Client) Uploader() *HTTPUploader {
	return &HTTPUploader{c: c}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload posts f as the multipart field "file" with the form value "folder".
func (u *HTTPUploader) Upload(ctx context.Context, folder string, f File) (string, error) {
	const op = "upload file"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("folder", folder); err != nil {
		return "", fmt.Errorf("api: building upload: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(f.Name)))
	h.Set("Content-Type", contentTypeOr(f.ContentType))
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("api: building upload: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", fmt.Errorf("api: building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("api: building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.c.endpoint(strings.Split(pathUpload, "/")...), &body)
	if err != nil {
		return "", apperror.RequestFailed(op, 0, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out uploadResponse
	if err := u.c.do(u.c.authed, req, op, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", apperror.RequestFailed(op, 0, fmt.Errorf("response has no url"))
	}
	return out.URL, nil
}

// objectPutter is the slice of *s3.Client the uploader needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader puts files straight into a bucket, for deployments where the
// server hands out public object URLs instead of storing uploads itself.
type S3Uploader struct {
	client objectPutter
	cfg    config.S3Config
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3Uploader builds an S3 client from cfg. Static keys are used when
// given; otherwise the default AWS credential chain applies. A custom
// endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client objectPutter, cfg config.S3Config) *S3Uploader {
	return &S3Uploader{client: client, cfg: cfg}
}

// Upload stores f under {folder}/{uuid}{ext} and returns the object URL.
func (u *S3Uploader) Upload(ctx context.Context, folder string, f File) (string, error) {
	key := path.Join(folder, uuid.NewString()+strings.ToLower(path.Ext(f.Name)))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(f.Data),
		ContentLength: aws.Int64(int64(len(f.Data))),
		ContentType:   aws.String(contentTypeOr(f.ContentType)),
	})
	if err != nil {
		return "", apperror.RequestFailed("upload file", 0, err)
	}
	return u.objectURL(key), nil
}

func (u *S3Uploader) objectURL(key string) string {
	switch {
	case u.cfg.PublicURL != "":
		return strings.TrimRight(u.cfg.PublicURL, "/") + "/" + key
	case u.cfg.Endpoint != "":
		return strings.TrimRight(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
	}
}

func contentTypeOr(ct string) string {
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

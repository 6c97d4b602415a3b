package api

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/config"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.S3Config
		urlPrefix string
	}{
		{
			name:      "aws url",
			cfg:       config.S3Config{Bucket: "media", Region: "eu-west-1"},
			urlPrefix: "https://media.s3.eu-west-1.amazonaws.com/posts/",
		},
		{
			name:      "custom endpoint",
			cfg:       config.S3Config{Bucket: "media", Region: "us-east-1", Endpoint: "http://localhost:9000/"},
			urlPrefix: "http://localhost:9000/media/posts/",
		},
		{
			name:      "public url wins",
			cfg:       config.S3Config{Bucket: "media", Endpoint: "http://localhost:9000", PublicURL: "https://cdn.example.com/"},
			urlPrefix: "https://cdn.example.com/posts/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			putter := &fakePutter{}
			u := newS3Uploader(putter, tt.cfg)

			url, err := u.Upload(context.Background(), FolderPosts, File{Name: "Clip.MP4", ContentType: "video/mp4", Data: []byte("data")})
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(url, tt.urlPrefix), url)
			assert.True(t, strings.HasSuffix(url, ".mp4"), url)

			require.Len(t, putter.inputs, 1)
			in := putter.inputs[0]
			assert.Equal(t, "media", aws.ToString(in.Bucket))
			assert.Equal(t, "video/mp4", aws.ToString(in.ContentType))
			assert.Equal(t, int64(4), aws.ToInt64(in.ContentLength))
			assert.True(t, strings.HasPrefix(aws.ToString(in.Key), "posts/"))
			assert.Equal(t, []byte("data"), putter.bodies[0])
		})
	}
}

func TestS3Uploader_UniqueKeys(t *testing.T) {
	putter := &fakePutter{}
	u := newS3Uploader(putter, config.S3Config{Bucket: "b", Region: "r"})

	a, err := u.Upload(context.Background(), FolderStories, File{Name: "a.jpg", Data: []byte("1")})
	require.NoError(t, err)
	b, err := u.Upload(context.Background(), FolderStories, File{Name: "a.jpg", Data: []byte("1")})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, "application/octet-stream", aws.ToString(putter.inputs[0].ContentType))
}

func TestS3Uploader_Error(t *testing.T) {
	u := newS3Uploader(&fakePutter{err: errors.New("access denied")}, config.S3Config{Bucket: "b"})

	_, err := u.Upload(context.Background(), FolderPosts, File{Name: "a.jpg"})
	assert.ErrorIs(t, err, apperror.ErrRequest)
	assert.ErrorContains(t, err, "failed to upload file")
}

func TestClient_Endpoint(t *testing.T) {
	base, err := url.Parse("http://localhost:8080/")
	require.NoError(t, err)
	c := &Client{baseURL: base}

	assert.Equal(t, "http://localhost:8080/api/posts", c.endpoint(pathPosts))
	assert.Equal(t, "http://localhost:8080/api/users/exists/ana%20b", c.endpoint(pathUsers, "exists", "ana b"))
	assert.Equal(t, "http://localhost:8080/api/comments/a%2Fb", c.endpoint(pathComments, "a/b"))
}

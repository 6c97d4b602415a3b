package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/media/mediatest"
	"github.com/sakif/skillflow/internal/model"
)

var (
	pngData = mediatest.PNG
	mp4Data = mediatest.MP4
)

// fakeProber reports a fixed duration per file content length.
type fakeProber struct {
	durations map[int]time.Duration
	err       error
}

func (p fakeProber) Duration(data []byte) (time.Duration, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.durations[len(data)], nil
}

type countingUploader struct {
	calls   int
	folders []string
	types   []string
	failAt  int
}

func (u *countingUploader) Upload(_ context.Context, folder string, f api.File) (string, error) {
	u.calls++
	if u.failAt != 0 && u.calls == u.failAt {
		return "", apperror.RequestFailed("upload file", 500, nil)
	}
	u.folders = append(u.folders, folder)
	u.types = append(u.types, f.ContentType)
	return "https://cdn.test/" + folder + "/" + f.Name, nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantMIME string
		wantKind string
	}{
		{name: "png", data: pngData, wantMIME: "image/png", wantKind: "image"},
		{name: "mp4", data: mp4Data(10), wantMIME: "video/mp4", wantKind: "video"},
		{name: "webm", data: mediatest.WebM(time.Second), wantMIME: "video/webm", wantKind: "video"},
		{name: "text", data: []byte("just words"), wantMIME: "text/plain", wantKind: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, k := Detect(tt.data)
			assert.Equal(t, tt.wantMIME, m)
			assert.Equal(t, tt.wantKind, k)
		})
	}
}

func TestMP4Prober(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    time.Duration
		wantErr bool
	}{
		{name: "movie header", data: mp4Data(45), want: 45 * time.Second},
		{name: "fragmented", data: mediatest.FragmentedMP4(60), want: 60 * time.Second},
		{name: "no length anywhere", data: mediatest.UnsizedMP4(), wantErr: true},
		{name: "not a video", data: []byte("not a video"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := MP4Prober{}.Duration(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestWebMProber(t *testing.T) {
	d, err := WebMProber{}.Duration(mediatest.WebM(5 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = WebMProber{}.Duration(mediatest.RecordedWebM(45 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)
}

func TestVideoProber(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want time.Duration
	}{
		{name: "mp4", data: mp4Data(12), want: 12 * time.Second},
		{name: "fragmented mp4", data: mediatest.FragmentedMP4(40), want: 40 * time.Second},
		{name: "webm", data: mediatest.WebM(8 * time.Second), want: 8 * time.Second},
		{name: "recorded webm", data: mediatest.RecordedWebM(20 * time.Second), want: 20 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := VideoProber{}.Duration(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestSelection_CheckVideoLength(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{name: "short mp4", data: mp4Data(10)},
		{name: "long fragmented mp4", data: mediatest.FragmentedMP4(60), wantErr: "must be 30 seconds or less"},
		{name: "mp4 without length", data: mediatest.UnsizedMP4(), wantErr: "Could not read the length"},
		{name: "short webm", data: mediatest.WebM(5 * time.Second)},
		{name: "long webm", data: mediatest.WebM(31 * time.Second), wantErr: "must be 30 seconds or less"},
		{name: "long recording", data: mediatest.RecordedWebM(45 * time.Second), wantErr: "must be 30 seconds or less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSelection(VideoProber{}).Check(Source{Name: "clip", Data: tt.data})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSelection_Attach(t *testing.T) {
	ctx := context.Background()
	short := mp4Data(12)
	long := mp4Data(31)

	t.Run("uploads photos and short videos", func(t *testing.T) {
		up := &countingUploader{}
		sel := NewSelection(MP4Prober{})

		items, err := sel.Attach(ctx, up, api.FolderPosts,
			Source{Name: "a.png", Data: pngData},
			Source{Name: "b.mp4", Data: short},
		)
		require.NoError(t, err)
		require.Len(t, items, 2)

		assert.Equal(t, model.MediaImage, items[0].Type)
		assert.Equal(t, model.MediaVideo, items[1].Type)
		assert.NotEqual(t, items[0].UID, items[1].UID)
		assert.Equal(t, []string{"image/png", "video/mp4"}, up.types)

		urls, types := sel.URLs()
		assert.Equal(t, []string{"https://cdn.test/posts/a.png", "https://cdn.test/posts/b.mp4"}, urls)
		assert.Equal(t, []string{"image", "video"}, types)
		assert.Equal(t, 1, sel.Remaining())
	})

	t.Run("long video is rejected before any upload", func(t *testing.T) {
		up := &countingUploader{}
		sel := NewSelection(MP4Prober{})

		_, err := sel.Attach(ctx, up, api.FolderPosts,
			Source{Name: "ok.png", Data: pngData},
			Source{Name: "long.mp4", Data: long},
		)
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Contains(t, err.Error(), "must be 30 seconds or less")
		assert.Zero(t, up.calls)
		assert.Zero(t, sel.Len())
	})

	t.Run("exactly thirty seconds is allowed", func(t *testing.T) {
		up := &countingUploader{}
		sel := NewSelection(fakeProber{durations: map[int]time.Duration{len(short): MaxVideoDuration}})

		_, err := sel.Attach(ctx, up, api.FolderPosts, Source{Name: "edge.mp4", Data: short})
		require.NoError(t, err)
		assert.Equal(t, 1, up.calls)
	})

	t.Run("unreadable video", func(t *testing.T) {
		up := &countingUploader{}
		sel := NewSelection(fakeProber{err: errors.New("bad moov")})

		_, err := sel.Attach(ctx, up, api.FolderPosts, Source{Name: "x.mp4", Data: short})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Zero(t, up.calls)
	})

	t.Run("more than three files", func(t *testing.T) {
		up := &countingUploader{}
		existing := ItemsFromURLs([]string{"https://cdn.test/1.png", "https://cdn.test/2.png"}, []string{"image"})
		sel := NewSelection(MP4Prober{}, existing...)

		_, err := sel.Attach(ctx, up, api.FolderPosts,
			Source{Name: "c.png", Data: pngData},
			Source{Name: "d.png", Data: pngData},
		)
		require.ErrorIs(t, err, apperror.ErrValidation)
		assert.Contains(t, err.Error(), "can only add 1 more")
		assert.Zero(t, up.calls)
		assert.Equal(t, 2, sel.Len())
	})

	t.Run("not media", func(t *testing.T) {
		up := &countingUploader{}
		sel := NewSelection(MP4Prober{})

		_, err := sel.Attach(ctx, up, api.FolderPosts, Source{Name: "notes.txt", Data: []byte("hello")})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Zero(t, up.calls)
	})

	t.Run("upload failure keeps earlier files", func(t *testing.T) {
		up := &countingUploader{failAt: 2}
		sel := NewSelection(MP4Prober{})

		added, err := sel.Attach(ctx, up, api.FolderPosts,
			Source{Name: "a.png", Data: pngData},
			Source{Name: "b.png", Data: pngData},
		)
		assert.ErrorIs(t, err, apperror.ErrRequest)
		assert.Len(t, added, 1)
		assert.Equal(t, 1, sel.Len())
	})
}

func TestSelection_Remove(t *testing.T) {
	items := ItemsFromURLs([]string{"u1", "u2"}, []string{"image", "video"})
	sel := NewSelection(MP4Prober{}, items...)

	assert.True(t, sel.Remove(items[0].UID))
	assert.False(t, sel.Remove(items[0].UID))

	urls, types := sel.URLs()
	assert.Equal(t, []string{"u2"}, urls)
	assert.Equal(t, []string{"video"}, types)
}

func TestReadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(path, pngData, 0o600))

	src, err := ReadSource(path)
	require.NoError(t, err)
	assert.Equal(t, "pic.png", src.Name)
	assert.Equal(t, pngData, src.Data)

	_, err = ReadSource(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

// Package media holds the rules for attaching photos and videos to a post or
// skill share.
//
// ATTACHMENT RULES:
//   - only images and videos are accepted, by detected content, not by name
//   - at most MaxItems attachments per skill share
//   - each video must be MaxVideoDuration or shorter
//
// Every rule is checked for the whole batch before the first upload starts,
// so a rejected batch never reaches the server.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abema/go-mp4"
	"github.com/at-wat/ebml-go"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/xid"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/model"
)

const (
	MaxItems         = 3
	MaxVideoDuration = 30 * time.Second
)

// Source is a file picked by the user, not yet validated or uploaded.
type Source struct {
	Name string
	Data []byte
}

// ReadSource loads a file from disk.
func ReadSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("media: reading %s: %w", path, err)
	}
	return Source{Name: filepath.Base(path), Data: data}, nil
}

// Item is an uploaded attachment.
type Item struct {
	UID  string
	Name string
	URL  string
	Type string // model.MediaImage or model.MediaVideo
}

// Detect sniffs data and returns its MIME type and top-level kind
// ("image", "video", ...).
func Detect(data []byte) (mimeType, kind string) {
	m := mimetype.Detect(data)
	mimeType = m.String()
	// Drop parameters such as "; charset=utf-8".
	base, _, _ := strings.Cut(mimeType, ";")
	kind, _, _ = strings.Cut(base, "/")
	return base, kind
}

// Prober measures the playing time of a video.
type Prober interface {
	Duration(data []byte) (time.Duration, error)
}

// VideoProber picks a prober by the detected container: Matroska and WebM
// go to WebMProber, everything else to MP4Prober.
type VideoProber struct{}

var _ Prober = VideoProber{}

func (VideoProber) Duration(data []byte) (time.Duration, error) {
	switch mimeType, _ := Detect(data); mimeType {
	case "video/webm", "video/x-matroska":
		return WebMProber{}.Duration(data)
	default:
		return MP4Prober{}.Duration(data)
	}
}

var errUnknownLength = errors.New("media: video length unknown")

// MP4Prober reads the duration of an ISO base media file (MP4, MOV, M4V).
//
// Fragmented files carry a zero movie header duration; their length comes
// from mvex/mehd, then from the fragment runs, then from the longest track.
type MP4Prober struct{}

var _ Prober = MP4Prober{}

func (MP4Prober) Duration(data []byte) (time.Duration, error) {
	r := bytes.NewReader(data)
	info, err := mp4.Probe(r)
	if err != nil {
		return 0, fmt.Errorf("media: probing video: %w", err)
	}
	if info.Timescale == 0 {
		return 0, errors.New("media: video has no timescale")
	}
	if info.Duration > 0 {
		return scaled(info.Duration, info.Timescale), nil
	}

	boxes, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvex(), mp4.BoxTypeMehd()})
	if err != nil {
		return 0, fmt.Errorf("media: probing fragments: %w", err)
	}
	for _, b := range boxes {
		mehd, ok := b.Payload.(*mp4.Mehd)
		if !ok {
			continue
		}
		d := uint64(mehd.FragmentDurationV0)
		if mehd.GetVersion() == 1 {
			d = mehd.FragmentDurationV1
		}
		if d > 0 {
			return scaled(d, info.Timescale), nil
		}
	}

	var longest time.Duration
	perTrack := make(map[uint32]uint64)
	for _, seg := range info.Segments {
		perTrack[seg.TrackID] += uint64(seg.Duration)
	}
	for _, tr := range info.Tracks {
		if tr.Timescale == 0 {
			continue
		}
		longest = max(longest, scaled(perTrack[tr.TrackID], tr.Timescale), scaled(tr.Duration, tr.Timescale))
	}
	if longest == 0 {
		return 0, errUnknownLength
	}
	return longest, nil
}

func scaled(units uint64, timescale uint32) time.Duration {
	return time.Duration(float64(units) / float64(timescale) * float64(time.Second))
}

type webmCluster struct {
	Timecode    uint64       `ebml:"Timecode"`
	SimpleBlock []ebml.Block `ebml:"SimpleBlock"`
}

type webmSegment struct {
	Info struct {
		TimecodeScale uint64  `ebml:"TimecodeScale"`
		Duration      float64 `ebml:"Duration"`
	} `ebml:"Info"`
	Cluster []webmCluster `ebml:"Cluster"`
}

type webmFile struct {
	Header struct {
		DocType string `ebml:"EBMLDocType"`
	} `ebml:"EBML"`
	Segment webmSegment `ebml:"Segment"`
}

// WebMProber reads the duration of a Matroska or WebM file from the segment
// info. Recordings that leave it out are measured by their last block.
type WebMProber struct{}

var _ Prober = WebMProber{}

func (WebMProber) Duration(data []byte) (time.Duration, error) {
	var f webmFile
	if err := ebml.Unmarshal(bytes.NewReader(data), &f, ebml.WithIgnoreUnknown(true)); err != nil {
		return 0, fmt.Errorf("media: probing video: %w", err)
	}
	scale := f.Segment.Info.TimecodeScale
	if scale == 0 {
		scale = uint64(time.Millisecond)
	}
	if d := f.Segment.Info.Duration; d > 0 {
		return time.Duration(d * float64(scale)), nil
	}

	var last int64
	for _, c := range f.Segment.Cluster {
		for _, b := range c.SimpleBlock {
			last = max(last, int64(c.Timecode)+int64(b.Timecode))
		}
	}
	if last <= 0 {
		return 0, errUnknownLength
	}
	return time.Duration(last) * time.Duration(scale), nil
}

// Selection is the list of attachments of one form.
type Selection struct {
	prober Prober
	items  []Item
}

// NewSelection starts a selection, optionally with attachments already on
// the record being edited.
func NewSelection(p Prober, existing ...Item) *Selection {
	return &Selection{prober: p, items: append([]Item(nil), existing...)}
}

// ItemsFromURLs rebuilds attachments from a stored record's parallel
// url/type slices. Missing types default to image.
func ItemsFromURLs(urls, types []string) []Item {
	items := make([]Item, 0, len(urls))
	for i, u := range urls {
		typ := model.MediaImage
		if i < len(types) && types[i] != "" {
			typ = types[i]
		}
		items = append(items, Item{UID: xid.New().String(), Name: filepath.Base(u), URL: u, Type: typ})
	}
	return items
}

func (s *Selection) Items() []Item {
	return append([]Item(nil), s.items...)
}

func (s *Selection) Len() int {
	return len(s.items)
}

// Remaining is how many more attachments fit.
func (s *Selection) Remaining() int {
	return max(MaxItems-len(s.items), 0)
}

// Remove drops the attachment with uid.
func (s *Selection) Remove(uid string) bool {
	for i, it := range s.items {
		if it.UID == uid {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// URLs returns the parallel url and type slices stored on a skill share.
func (s *Selection) URLs() (urls, types []string) {
	urls = make([]string, 0, len(s.items))
	types = make([]string, 0, len(s.items))
	for _, it := range s.items {
		urls = append(urls, it.URL)
		types = append(types, it.Type)
	}
	return urls, types
}

type checked struct {
	src      Source
	mimeType string
	kind     string
}

// Check validates a batch against the rules without uploading anything.
func (s *Selection) Check(srcs ...Source) error {
	_, err := s.check(srcs)
	return err
}

func (s *Selection) check(srcs []Source) ([]checked, error) {
	if len(s.items)+len(srcs) > MaxItems {
		return nil, apperror.ValidationFailed("media", fmt.Sprintf(
			"You can only upload up to %d files in total. You've selected %d files but can only add %d more.",
			MaxItems, len(srcs), s.Remaining()))
	}

	out := make([]checked, 0, len(srcs))
	for _, src := range srcs {
		mimeType, kind := Detect(src.Data)
		switch kind {
		case model.MediaImage:
		case model.MediaVideo:
			if err := s.checkVideo(src); err != nil {
				return nil, err
			}
		default:
			return nil, apperror.ValidationFailed("media", fmt.Sprintf("%q is not a photo or video", src.Name))
		}
		out = append(out, checked{src: src, mimeType: mimeType, kind: kind})
	}
	return out, nil
}

func (s *Selection) checkVideo(src Source) error {
	d, err := s.prober.Duration(src.Data)
	if err != nil {
		return apperror.ValidationFailed("media", fmt.Sprintf("Could not read the length of video %q", src.Name))
	}
	if d > MaxVideoDuration {
		return apperror.ValidationFailed("media", fmt.Sprintf("Video %q must be 30 seconds or less", src.Name))
	}
	return nil
}

// Attach validates srcs, uploads them to folder and appends them to the
// selection. Nothing is uploaded if any file breaks a rule. Files uploaded
// before an upload failure stay attached.
func (s *Selection) Attach(ctx context.Context, up api.Uploader, folder string, srcs ...Source) ([]Item, error) {
	files, err := s.check(srcs)
	if err != nil {
		return nil, err
	}

	added := make([]Item, 0, len(files))
	for _, f := range files {
		url, err := up.Upload(ctx, folder, api.File{Name: f.src.Name, ContentType: f.mimeType, Data: f.src.Data})
		if err != nil {
			return added, err
		}
		it := Item{UID: xid.New().String(), Name: f.src.Name, URL: url, Type: f.kind}
		s.items = append(s.items, it)
		added = append(added, it)
	}
	return added, nil
}

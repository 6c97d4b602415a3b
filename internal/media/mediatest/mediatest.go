// Package mediatest builds small photo and video files for tests.
//
// The videos carry only the boxes or elements a duration prober reads, not
// playable frames.
package mediatest

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/at-wat/ebml-go"
)

// PNG is the header of a 1x1 PNG image.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

const mp4Timescale = 1000

// MP4 is an ftyp box followed by a movie header lasting secs seconds.
func MP4(secs uint32) []byte {
	return mp4File(mvhd(secs * mp4Timescale))
}

// FragmentedMP4 is a fragmented MP4 as written by browser recorders: the
// movie header duration is zero and the length is in mvex/mehd.
func FragmentedMP4(secs uint32) []byte {
	mehd := box("mehd", make([]byte, 8))
	binary.BigEndian.PutUint32(mehd[12:], secs*mp4Timescale)
	return mp4File(mvhd(0), box("mvex", mehd))
}

// UnsizedMP4 has a zero movie header duration and nothing else to measure.
func UnsizedMP4() []byte {
	return mp4File(mvhd(0))
}

func mp4File(moov ...[]byte) []byte {
	ftyp := box("ftyp", []byte{'m', 'p', '4', '2', 0, 0, 0, 0, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'})
	return append(ftyp, box("moov", bytes.Join(moov, nil))...)
}

func mvhd(duration uint32) []byte {
	p := make([]byte, 100)
	// version 0, flags 0, creation 0, modification 0
	binary.BigEndian.PutUint32(p[12:], mp4Timescale)
	binary.BigEndian.PutUint32(p[16:], duration)
	binary.BigEndian.PutUint32(p[20:], 0x00010000) // rate 1.0
	binary.BigEndian.PutUint16(p[24:], 0x0100)     // volume 1.0
	binary.BigEndian.PutUint32(p[36:], 0x00010000) // matrix
	binary.BigEndian.PutUint32(p[52:], 0x00010000)
	binary.BigEndian.PutUint32(p[68:], 0x40000000)
	binary.BigEndian.PutUint32(p[96:], 2) // next track id
	return box("mvhd", p)
}

func box(typ string, payload []byte) []byte {
	b := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(b, uint32(8+len(payload)))
	copy(b[4:], typ)
	return append(b, payload...)
}

type ebmlHeader struct {
	EBMLVersion        uint64 `ebml:"EBMLVersion"`
	EBMLReadVersion    uint64 `ebml:"EBMLReadVersion"`
	EBMLMaxIDLength    uint64 `ebml:"EBMLMaxIDLength"`
	EBMLMaxSizeLength  uint64 `ebml:"EBMLMaxSizeLength"`
	DocType            string `ebml:"EBMLDocType"`
	DocTypeVersion     uint64 `ebml:"EBMLDocTypeVersion"`
	DocTypeReadVersion uint64 `ebml:"EBMLDocTypeReadVersion"`
}

type info struct {
	TimecodeScale uint64  `ebml:"TimecodeScale"`
	Duration      float64 `ebml:"Duration,omitempty"`
	MuxingApp     string  `ebml:"MuxingApp"`
	WritingApp    string  `ebml:"WritingApp"`
}

type cluster struct {
	Timecode    uint64       `ebml:"Timecode"`
	SimpleBlock []ebml.Block `ebml:"SimpleBlock"`
}

type segment struct {
	Info    info      `ebml:"Info"`
	Cluster []cluster `ebml:"Cluster"`
}

type webmFile struct {
	Header  ebmlHeader `ebml:"EBML"`
	Segment segment    `ebml:"Segment"`
}

// millisecond timecodes
const timecodeScale = uint64(time.Millisecond)

// WebM is a WebM file whose segment info states a length of d.
func WebM(d time.Duration) []byte {
	return marshalWebM(segment{Info: newInfo(float64(d.Milliseconds()))})
}

// RecordedWebM is a WebM file without a stated length, as written by
// MediaRecorder. It holds one frame per second for d, in clusters of ten
// seconds.
func RecordedWebM(d time.Duration) []byte {
	var clusters []cluster
	for ms := int64(0); ms <= d.Milliseconds(); ms += 1000 {
		if ms%10000 == 0 {
			clusters = append(clusters, cluster{Timecode: uint64(ms)})
		}
		c := &clusters[len(clusters)-1]
		c.SimpleBlock = append(c.SimpleBlock, ebml.Block{
			TrackNumber: 1,
			Timecode:    int16(ms - int64(c.Timecode)),
			Keyframe:    true,
			Data:        [][]byte{{0}},
		})
	}
	return marshalWebM(segment{Info: newInfo(0), Cluster: clusters})
}

func newInfo(duration float64) info {
	return info{TimecodeScale: timecodeScale, Duration: duration, MuxingApp: "mediatest", WritingApp: "mediatest"}
}

func marshalWebM(s segment) []byte {
	f := webmFile{
		Header: ebmlHeader{
			EBMLVersion:        1,
			EBMLReadVersion:    1,
			EBMLMaxIDLength:    4,
			EBMLMaxSizeLength:  8,
			DocType:            "webm",
			DocTypeVersion:     4,
			DocTypeReadVersion: 2,
		},
		Segment: s,
	}
	var buf bytes.Buffer
	if err := ebml.Marshal(&f, &buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

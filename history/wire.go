package history

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-gl/mathgl/mgl64"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("history: cbor enc mode: %v", err))
	}
	cborEncMode = em
}

// wireSegment is the compact on-disk form of a Segment.
type wireSegment struct {
	_        struct{} `cbor:",toarray"`
	Start    [3]float64
	End      [3]float64
	Extruded float64
	Color    [3]uint8
	Print    bool
}

type wireLog struct {
	Version  int           `cbor:"1,keyasint"`
	Segments []wireSegment `cbor:"2,keyasint"`
}

const wireVersion = 1

// Encode writes the log as CBOR, for preview and analysis tools.
func (l *Log) Encode(w io.Writer) error {
	wl := wireLog{Version: wireVersion, Segments: make([]wireSegment, len(l.Segments))}
	for i, s := range l.Segments {
		wl.Segments[i] = wireSegment{
			Start:    s.Start,
			End:      s.End,
			Extruded: s.Extruded,
			Color:    [3]uint8{s.Color.R, s.Color.G, s.Color.B},
			Print:    s.Print,
		}
	}
	if err := cborEncMode.NewEncoder(w).Encode(wl); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return nil
}

// Decode reads a log written by Encode.
func Decode(r io.Reader) (*Log, error) {
	var wl wireLog
	if err := cbor.NewDecoder(r).Decode(&wl); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	if wl.Version != wireVersion {
		return nil, fmt.Errorf("decoding history: unsupported version %d", wl.Version)
	}
	l := &Log{Segments: make([]Segment, len(wl.Segments))}
	for i, s := range wl.Segments {
		l.Segments[i] = Segment{
			Start:    mgl64.Vec3(s.Start),
			End:      mgl64.Vec3(s.End),
			Extruded: s.Extruded,
			Color:    Color{s.Color[0], s.Color[1], s.Color[2]},
			Print:    s.Print,
		}
	}
	return l, nil
}

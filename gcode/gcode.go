// Package gcode writes and reads the relative-coordinate G-code
// dialect understood by paste and clay extruders.
//
// Every move is written as a delta from the previous position (the
// machine is expected to be in G91 mode). Axes whose rounded delta is
// zero are left out of the instruction.
package gcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.gcode")

// DefaultPrecision is the number of decimal places used for
// coordinates and extrusion amounts.
const DefaultPrecision = 4

// ErrNoOutput is returned by Flush on a Writer with no destination.
var ErrNoOutput = errors.New("gcode: writer has no output")

// Round rounds v to the given number of decimal places.
func Round(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	r := math.Round(v*p) / p
	if r == 0 {
		// normalise negative zero
		return 0
	}
	return r
}

// Number formats an already-rounded value without trailing zeros.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatMove renders a relative move as a single instruction.
//
// A print move (pen down) is a G1 carrying the non-zero axes and the
// extrusion amount. A travel move is a G0 carrying only the non-zero
// axes. ok is false when every axis rounds to zero, in which case no
// instruction should be written.
func FormatMove(dx, dy, dz float64, pen bool, e float64, precision int) (s string, ok bool) {
	x := Round(dx, precision)
	y := Round(dy, precision)
	z := Round(dz, precision)
	if x == 0 && y == 0 && z == 0 {
		return "", false
	}
	var b strings.Builder
	if pen {
		b.WriteString("G1")
	} else {
		b.WriteString("G0")
	}
	for _, ax := range []struct {
		name byte
		v    float64
	}{{'X', x}, {'Y', y}, {'Z', z}} {
		if ax.v == 0 {
			continue
		}
		b.WriteByte(' ')
		b.WriteByte(ax.name)
		b.WriteString(Number(ax.v))
	}
	if pen {
		b.WriteString(" E")
		b.WriteString(Number(Round(e, precision)))
	}
	return b.String(), true
}

// Config describes the fixed parts of a G-code stream.
type Config struct {
	// Precision is the number of decimal places written. Zero means
	// DefaultPrecision.
	Precision int

	// Banner, if non-empty, is written as comment lines at the top of
	// the stream.
	Banner []string

	// Preamble and Postamble are text/template sources executed with
	// Data when the stream is opened and closed.
	Preamble  string
	Postamble string
	Data      interface{}

	// FeedRate, if positive, is set once after the preamble.
	FeedRate float64
}

// Writer emits instructions to an underlying io.Writer. The first
// write error is kept and returned by Flush; once an error has
// occurred all further output is discarded.
type Writer struct {
	cfg  Config
	bw   *bufio.Writer
	werr error
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer, cfg *Config) *Writer {
	gw := &Writer{}
	if cfg != nil {
		gw.cfg = *cfg
	}
	if gw.cfg.Precision == 0 {
		gw.cfg.Precision = DefaultPrecision
	}
	if w != nil {
		gw.bw = bufio.NewWriter(w)
	} else {
		gw.werr = ErrNoOutput
	}
	return gw
}

// Precision reports the number of decimal places the writer uses.
func (w *Writer) Precision() int {
	return w.cfg.Precision
}

func (w *Writer) wr(f string, args ...interface{}) {
	if w.werr != nil {
		return
	}
	_, w.werr = fmt.Fprintf(w.bw, f, args...)
}

func (w *Writer) template(name, src string) {
	if src == "" || w.werr != nil {
		return
	}
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		w.werr = fmt.Errorf("gcode: parsing %s: %w", name, err)
		return
	}
	if err := tmpl.Execute(w.bw, w.cfg.Data); err != nil {
		w.werr = fmt.Errorf("gcode: executing %s: %w", name, err)
		return
	}
	if !strings.HasSuffix(src, "\n") {
		w.wr("\n")
	}
}

// Preamble writes the banner, the configured preamble and the initial
// feed rate.
func (w *Writer) Preamble() {
	if len(w.cfg.Banner) > 0 {
		rule := "; " + strings.Repeat("*", 49) + "\n"
		w.wr(rule)
		for _, line := range w.cfg.Banner {
			w.wr("; %s\n", line)
		}
		w.wr(rule)
	}
	w.template("preamble", w.cfg.Preamble)
	if w.cfg.FeedRate > 0 {
		w.FeedRate(w.cfg.FeedRate)
	}
	w.Comment("end printer initialization")
}

// Postamble writes the configured postamble.
func (w *Writer) Postamble() {
	w.template("postamble", w.cfg.Postamble)
}

// Move writes a relative move. Travel moves are preceded by a
// "travel" comment. It reports whether anything was written.
func (w *Writer) Move(dx, dy, dz float64, pen bool, e float64) bool {
	s, ok := FormatMove(dx, dy, dz, pen, e, w.cfg.Precision)
	if !ok {
		return false
	}
	if !pen {
		w.Comment("travel")
	}
	w.wr("%s\n", s)
	return true
}

// Lift writes a pure Z move. Lifts never carry extrusion; travel lifts
// are written as G0 and marked with a comment, like other travels.
func (w *Writer) Lift(dz float64, pen bool) bool {
	z := Round(dz, w.cfg.Precision)
	if z == 0 {
		return false
	}
	if !pen {
		w.Comment("travel")
		w.wr("G0 Z%s\n", Number(z))
		return true
	}
	w.wr("G1 Z%s\n", Number(z))
	return true
}

// FeedRate sets the feed rate in mm/minute.
func (w *Writer) FeedRate(f float64) {
	w.wr("G1 F%s\n", Number(f))
}

// Extrude pushes q units of material without moving.
func (w *Writer) Extrude(q float64) {
	w.wr("G1 E%s\n", Number(Round(q, w.cfg.Precision)))
}

// Dwell pauses for ms milliseconds.
func (w *Writer) Dwell(ms float64) {
	w.wr("G4 P%s\n", Number(ms))
}

// PauseAndWait stops until the operator resumes the print.
func (w *Writer) PauseAndWait() {
	w.wr("M0\n")
}

// ExtruderTemp sets the extruder temperature and waits for it.
func (w *Writer) ExtruderTemp(s float64) {
	w.wr("M104 S%s\nM109 S%s\n", Number(s), Number(s))
}

// BedTemp sets the bed temperature and waits for it.
func (w *Writer) BedTemp(s float64) {
	w.wr("M140 S%s\nM190 S%s\n", Number(s), Number(s))
}

// Mix sets the ratio between the two channels of a mixing extruder.
// f goes to the first channel and 1-f to the second.
func (w *Writer) Mix(f float64) {
	w.wr("M163 S0 P%s ; mix factor for the auger extruder\n", Number(Round(f, 4)))
	w.wr("M163 S1 P%s ; mix factor for the plunger extruder\n", Number(Round(1-f, 4)))
	w.wr("M164 S0 ; finalize mix\n")
}

// Comment writes a comment line.
func (w *Writer) Comment(s string) {
	w.wr("; %s\n", s)
}

// Raw writes s verbatim, followed by a newline.
func (w *Writer) Raw(s string) {
	w.wr("%s\n", s)
}

// Flush writes any buffered output and returns the first error the
// writer encountered.
func (w *Writer) Flush() error {
	if w.werr == nil {
		w.werr = w.bw.Flush()
	}
	if w.werr != nil {
		log.Errorf("gcode output failed: %s", w.werr)
	}
	return w.werr
}

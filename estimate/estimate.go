// Package estimate derives physical quantities from a recorded print:
// path length, deposited volume and mass, print time and the travel
// of the printer's feed mechanism.
//
// Estimates never modify the history they read. Values are kept at
// full precision; rounding happens only in Report.
package estimate

import (
	"fmt"
	"io"
	"math"

	"github.com/paulhankin/clayturtle/history"
	"github.com/paulhankin/clayturtle/profile"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.estimate")

// Length returns the total length of the printed (pen down) segments.
func Length(l *history.Log) float64 {
	total := 0.0
	for _, s := range l.Segments {
		if s.Print && !s.Degenerate() {
			total += s.Length()
		}
	}
	return total
}

// Volume returns the volume in mm³ deposited along length mm of path.
func Volume(length float64, p profile.Profile) float64 {
	r := p.ExtrudeWidth / 2
	return length * math.Pi * r * r * p.ExtrudeRate * p.VolumeCalibration
}

// Mass returns the mass in grams of volume mm³ of material with the
// given density in g/ml.
func Mass(volume, density float64) float64 {
	return volume / 1000 * density
}

// Time returns the print time in minutes for length mm at speed
// mm/minute.
func Time(length, speed float64) float64 {
	if speed <= 0 {
		log.Warningf("no print time for speed %g", speed)
		return 0
	}
	return length / speed
}

// Feed returns how far the printer's feed mechanism travels, in
// p.FeedUnit, to deposit volume mm³. It is zero for printers whose
// feed is not modelled.
func Feed(volume float64, p profile.Profile) float64 {
	if p.FeedDivisor == 0 {
		return 0
	}
	return volume / p.FeedDivisor
}

// Estimate is a summary of a print.
type Estimate struct {
	Printer string
	// Length in mm, Volume in mm³, Mass in g, Time in minutes.
	Length, Volume, Mass, Time float64
	// Feed is the feed mechanism travel in FeedUnit.
	Feed     float64
	FeedUnit string
}

// Of estimates the print recorded in l on a printer with settings p.
func Of(l *history.Log, p profile.Profile) Estimate {
	e := Estimate{Printer: p.Name, FeedUnit: p.FeedUnit}
	e.Length = Length(l)
	e.Volume = Volume(e.Length, p)
	e.Mass = Mass(e.Volume, p.Density)
	e.Time = Time(e.Length, p.Speed)
	e.Feed = Feed(e.Volume, p)
	return e
}

// Report writes a human readable summary of e.
func (e Estimate) Report(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("printer: %s", e.Printer),
		fmt.Sprintf("length of path: %.1f mm", e.Length),
		fmt.Sprintf("volume: %.1f ml", e.Volume/1000),
	}
	if e.Mass > 0 {
		lines = append(lines, fmt.Sprintf("mass: %.1f g", e.Mass))
	}
	lines = append(lines, fmt.Sprintf("print time: %.1f minutes", e.Time))
	if e.FeedUnit != "" {
		lines = append(lines, fmt.Sprintf("extruder feed: %.1f %s", e.Feed, e.FeedUnit))
	}
	for _, s := range lines {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return fmt.Errorf("writing estimate: %w", err)
		}
	}
	return nil
}

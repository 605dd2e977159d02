// Package profile holds printer and material presets.
//
// A Profile is immutable once chosen: the turtle copies its mutable
// fields when it is constructed or when a new profile is selected.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.profile")

var (
	// ErrUnknownProfile is returned for printer names with no preset.
	ErrUnknownProfile = errors.New("unknown printer profile")
	// ErrUnknownMaterial is returned for material names with no preset.
	ErrUnknownMaterial = errors.New("unknown material")
)

// Profile describes a printer and the default way to drive it.
// Lengths are in mm and speeds in mm/minute.
type Profile struct {
	Name         string  `yaml:"name" toml:"name"`
	Nozzle       float64 `yaml:"nozzle" toml:"nozzle"`
	ExtrudeWidth float64 `yaml:"extrude_width" toml:"extrude_width"`
	LayerHeight  float64 `yaml:"layer_height" toml:"layer_height"`
	// ExtrudeRate is the extrusion amount per mm of path.
	ExtrudeRate float64 `yaml:"extrude_rate" toml:"extrude_rate"`
	Speed       float64 `yaml:"speed" toml:"speed"`
	// Resolution is the shortest segment worth sending to the printer.
	Resolution    float64 `yaml:"resolution" toml:"resolution"`
	BedX          float64 `yaml:"bed_x" toml:"bed_x"`
	BedY          float64 `yaml:"bed_y" toml:"bed_y"`
	PrintHeadSize float64 `yaml:"print_head_size" toml:"print_head_size"`

	// VolumeCalibration scales the geometric volume of a path to the
	// volume the printer actually deposits. It is measured, not derived.
	VolumeCalibration float64 `yaml:"volume_calibration" toml:"volume_calibration"`
	// FeedDivisor converts deposited volume (mm³) into travel of the
	// feed mechanism, in FeedUnit. Zero means the feed is not modelled.
	FeedDivisor float64 `yaml:"feed_divisor" toml:"feed_divisor"`
	FeedUnit    string  `yaml:"feed_unit" toml:"feed_unit"`
	// Density of the material in g/ml, for mass estimates.
	Density float64 `yaml:"density" toml:"density"`

	// Dwell is true for firmware that honours G4 pauses.
	Dwell     bool   `yaml:"dwell" toml:"dwell"`
	Precision int    `yaml:"precision" toml:"precision"`
	Preamble  string `yaml:"preamble" toml:"preamble"`
	Postamble string `yaml:"postamble" toml:"postamble"`
}

// relativePreamble puts the machine into millimetres, relative
// positioning and relative extrusion.
const relativePreamble = `; printer: {{.Name}}
G21 ; units in mm
G90 ; absolute positioning for the start sequence
G92 X0 Y0 Z0 E0
G91 ; relative positioning
M83 ; relative extrusion`

const enderPreamble = `; printer: {{.Name}}
M104 S200
M140 S60
M190 S60
M109 S200
G21 ; units in mm
G28 ; home
G90
G1 Z{{.LayerHeight}} F3000
G92 E0
G91 ; relative positioning
M83 ; relative extrusion`

const defaultPostamble = `; end of print
G91
G1 Z10 F1000 ; clear the print
M84 ; motors off`

// presets are keyed by canonical name.
var presets = map[string]Profile{
	"ender": {
		Nozzle: 0.2, ExtrudeWidth: 0.4, LayerHeight: 0.2, ExtrudeRate: 0.05,
		Speed: 1000, Resolution: 0.1, BedX: 220, BedY: 220,
		VolumeCalibration: 1, Dwell: true, Preamble: enderPreamble,
	},
	"super": {
		Nozzle: 3.0, ExtrudeWidth: 3.4, LayerHeight: 2.2, ExtrudeRate: 3.0,
		Speed: 1000, Resolution: 1.0, BedX: 400, BedY: 400, PrintHeadSize: 102,
		VolumeCalibration: 1, FeedDivisor: 7088, FeedUnit: "cm",
	},
	"micro": {
		Nozzle: 3.0, ExtrudeWidth: 3.4, LayerHeight: 2.2, ExtrudeRate: 2.5,
		Speed: 1200, Resolution: 0.1, BedX: 280, BedY: 265, PrintHeadSize: 77,
		// 70mm inner diameter barrel: 38.48 cm² of plunger
		VolumeCalibration: 0.265, FeedDivisor: 38480, FeedUnit: "cm",
	},
	"matrix": {
		Nozzle: 1.5, ExtrudeWidth: 2.25, LayerHeight: 1.0, ExtrudeRate: 1.0,
		Speed: 1000, Resolution: 0.5, BedX: 400, BedY: 400, PrintHeadSize: 64,
		VolumeCalibration: 0.86, FeedDivisor: 2000, FeedUnit: "mm",
	},
	"eazao": {
		Nozzle: 1.5, ExtrudeWidth: 2.25, LayerHeight: 1.0, ExtrudeRate: 1.0,
		Speed: 1000, Resolution: 0.5, BedX: 150, BedY: 150, PrintHeadSize: 64,
		VolumeCalibration: 0.86, FeedDivisor: 2000, FeedUnit: "mm",
	},
	"civil": {
		Nozzle: 20, ExtrudeWidth: 10, LayerHeight: 10, ExtrudeRate: 1,
		Speed: 1000, Resolution: 10, BedX: 2200, BedY: 1800,
		VolumeCalibration: 1,
	},
	"tronxy": {
		Nozzle: 3.0, ExtrudeWidth: 3.0, LayerHeight: 2.2, ExtrudeRate: 2.5,
		Speed: 1200, Resolution: 0.5, BedX: 255, BedY: 255,
		VolumeCalibration: 1,
	},
}

// aliases maps lower-cased alternative names to canonical names.
var aliases = map[string]string{
	"creality":        "ender",
	"creatlity":       "ender",
	"3dpotter":        "super",
	"3d potter":       "super",
	"3dpottermicro":   "micro",
	"3d potter micro": "micro",
}

func canonical(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if c, ok := aliases[n]; ok {
		return c
	}
	return n
}

// Lookup returns the preset for the named printer. Names are case
// insensitive and common aliases are accepted.
func Lookup(name string) (Profile, error) {
	n := canonical(name)
	p, ok := presets[n]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (known printers: %s)", ErrUnknownProfile, name, strings.Join(Names(), ", "))
	}
	p.Name = n
	if p.Precision == 0 {
		p.Precision = 4
	}
	if p.Preamble == "" {
		p.Preamble = relativePreamble
	}
	if p.Postamble == "" {
		p.Postamble = defaultPostamble
	}
	return p, nil
}

// Names lists the canonical preset names.
func Names() []string {
	var ns []string
	for n := range presets {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

// Material is a preset for a printable paste. Zero fields leave the
// corresponding printer setting alone.
type Material struct {
	Name         string
	Nozzle       float64
	Mix          float64
	LayerHeight  float64
	ExtrudeRate  float64
	ExtrudeWidth float64
}

var materials = map[string]Material{
	"metal": {
		Name: "metal", Nozzle: 0.6, Mix: 0.95,
		LayerHeight: 0.5, ExtrudeRate: 0.25, ExtrudeWidth: 0.75,
	},
	"clay":       {Name: "clay", Mix: 0.90},
	"play-dough": {Name: "play-dough", Mix: 0.92},
}

// LookupMaterial returns the named material preset.
func LookupMaterial(name string) (Material, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "-")
	m, ok := materials[n]
	if !ok {
		log.Warningf("unknown material %q", name)
		return Material{}, fmt.Errorf("%w %q (known materials: metal, clay, play-dough)", ErrUnknownMaterial, name)
	}
	return m, nil
}

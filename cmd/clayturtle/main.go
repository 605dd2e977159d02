package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/cmd/clayturtle/clayturtle"
	"github.com/paulhankin/clayturtle/profile"
	"github.com/spf13/pflag"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

type flagSizeValue struct {
	X, Y float64
}

func (fs *flagSizeValue) String() string {
	return fmt.Sprintf("%.2f,%.2f", fs.X, fs.Y)
}

func (fs *flagSizeValue) Type() string {
	return "x,y"
}

func parseSizePart(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (fs *flagSizeValue) Set(s string) error {
	var err error
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		fs.X, err = parseSizePart(parts[0])
		return err
	}
	if len(parts) > 2 {
		return fmt.Errorf("can't parse %q as size", s)
	}
	if fs.X, err = parseSizePart(parts[0]); err != nil {
		return err
	}
	if fs.Y, err = parseSizePart(parts[1]); err != nil {
		return err
	}
	return nil
}

func (fs *flagSizeValue) vec() mgl64.Vec3 {
	return mgl64.Vec3{fs.X, fs.Y, 0}
}

// flags
var (
	flagIn      string
	flagScript  string
	flagPattern string
	flagDrawing bool
	flagOut     string
	flagHistory string

	flagPrinter     string
	flagProfile     string
	flagLayerHeight float64

	flagDelta  flagSizeValue
	flagSize   flagSizeValue
	flagCenter bool

	flagHeight   float64
	flagTopScale float64
	flagDiameter float64

	flagMode     string
	flagWalls    int
	flagBottom   int
	flagSpiral   bool
	flagSimplify float64
	flagEstimate bool

	flagVerbose int
	flagLog     string
)

func init() {
	pflag.StringVarP(&flagIn, "in", "i", "", "svg outline input file")
	pflag.StringVarP(&flagScript, "script", "s", "", "javascript turtle program")
	pflag.StringVar(&flagPattern, "pattern", "", "image to print as a pattern cylinder")
	pflag.BoolVar(&flagDrawing, "drawing", false, "parse the outline with the full svg path parser")
	pflag.StringVarP(&flagOut, "out", "o", "out.gcode", "gcode output file, or .svg for a preview")
	pflag.StringVar(&flagHistory, "history", "", "write the recorded moves to this file (cbor)")
	pflag.StringVarP(&flagPrinter, "printer", "p", profile.DefaultBase, "printer preset ("+strings.Join(profile.Names(), ", ")+")")
	pflag.StringVar(&flagProfile, "profile", "", "printer profile file (.yaml or .toml)")
	pflag.Float64Var(&flagLayerHeight, "layer-height", 0, "override the printer's layer height (mm)")
	pflag.Var(&flagDelta, "offset", "displacement of the outline from the origin (mm)")
	pflag.Var(&flagSize, "size", "target size of the outline (mm)")
	pflag.BoolVar(&flagCenter, "center", false, "if set, center the outline on the bed")
	pflag.Float64Var(&flagHeight, "height", 50, "height of the print (mm)")
	pflag.Float64Var(&flagTopScale, "top-scale", 1, "scale of the top layer relative to the bottom")
	pflag.Float64Var(&flagDiameter, "diameter", 80, "base diameter of a pattern cylinder (mm)")
	pflag.StringVarP(&flagMode, "mode", "m", "walls", "walls, weave, chase or "+clayturtle.WovenWall)
	pflag.IntVar(&flagWalls, "walls", 1, "number of walls in walls mode")
	pflag.IntVar(&flagBottom, "bottom", 0, "number of solid bottom layers")
	pflag.BoolVar(&flagSpiral, "spiral", false, "climb continuously between layers")
	pflag.Float64Var(&flagSimplify, "simplify", 0, "simplify the outline to this tolerance (mm)")
	pflag.BoolVarP(&flagEstimate, "estimate", "e", false, "print a material and time estimate")
	pflag.CountVarP(&flagVerbose, "verbose", "v", "add verbosity (may be repeated)")
	pflag.StringVar(&flagLog, "log", "", "log to file (defaults to stderr)")
}

func main() {
	fail := func(s string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, s+"\n", args...)
		os.Exit(2)
	}

	pflag.Parse()
	commonlog.Configure(flagVerbose, logPath())

	cfg := &clayturtle.Config{
		In:          flagIn,
		Script:      flagScript,
		Pattern:     flagPattern,
		Drawing:     flagDrawing,
		Out:         flagOut,
		History:     flagHistory,
		Printer:     flagPrinter,
		ProfileFile: flagProfile,
		LayerHeight: flagLayerHeight,
		Delta:       flagDelta.vec(),
		Size:        flagSize.vec(),
		Center:      flagCenter,
		Height:      flagHeight,
		TopScale:    flagTopScale,
		Diameter:    flagDiameter,
		Mode:        flagMode,
		Walls:       flagWalls,
		Bottom:      flagBottom,
		Spiral:      flagSpiral,
		Simplify:    flagSimplify,
	}
	if flagEstimate {
		cfg.Report = os.Stdout
	}
	if err := clayturtle.Convert(cfg); err != nil {
		fail("%v", err)
	}
}

func logPath() *string {
	if flagLog == "" {
		return nil
	}
	return &flagLog
}

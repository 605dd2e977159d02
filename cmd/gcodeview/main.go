package main

import (
	"fmt"
	"os"

	"github.com/paulhankin/clayturtle/cmd/gcodeview/gcodeview"
	"github.com/spf13/pflag"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// flags
var (
	flagIn       string
	flagOut      string
	flagAbsolute bool
	flagTravel   float64
	flagVerbose  int
)

func init() {
	pflag.StringVarP(&flagIn, "in", "i", "", "gcode input file")
	pflag.StringVarP(&flagOut, "out", "o", "out.svg", "svg output file")
	pflag.BoolVar(&flagAbsolute, "absolute", false, "read coordinates as absolute positions")
	pflag.Float64Var(&flagTravel, "travel", 15, "travels longer than this are shown in red (mm)")
	pflag.CountVarP(&flagVerbose, "verbose", "v", "add verbosity (may be repeated)")
}

func main() {
	pflag.Parse()
	commonlog.Configure(flagVerbose, nil)
	if flagIn == "" && pflag.NArg() == 1 {
		flagIn = pflag.Arg(0)
	}
	err := gcodeview.View(&gcodeview.Config{
		In:           flagIn,
		Out:          flagOut,
		Absolute:     flagAbsolute,
		TravelLength: flagTravel,
		Report:       os.Stdout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

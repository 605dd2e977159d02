package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/paths"
)

// Command is one parsed line of G-code.
type Command struct {
	Letter  byte // 'G', 'M' or 'T'; zero for comment-only lines
	Number  int
	Params  map[byte]float64
	Comment string
}

// Has reports whether the command carries the parameter p.
func (c *Command) Has(p byte) bool {
	_, ok := c.Params[p]
	return ok
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// number scans a signed decimal number starting at i and returns the
// index just after it.
func number(s string, i int) (float64, int, error) {
	j := i
	if j < len(s) && (s[j] == '-' || s[j] == '+') {
		j++
	}
	for j < len(s) && (s[j] == '.' || (s[j] >= '0' && s[j] <= '9')) {
		j++
	}
	if j == i {
		return 0, i, nil
	}
	f, err := strconv.ParseFloat(s[i:j], 64)
	return f, j, err
}

// ParseLine parses a single line. Blank lines give ok == false.
func ParseLine(line string) (cmd Command, ok bool, err error) {
	i := 0
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	if i == len(line) {
		return Command{}, false, nil
	}
	cmd.Params = map[byte]float64{}
	if line[i] == ';' || line[i] == '(' {
		cmd.Comment = line[i:]
		return cmd, true, nil
	}
	if c := toUpper(line[i]); c == 'G' || c == 'M' || c == 'T' {
		cmd.Letter = c
		n, j, err := number(line, i+1)
		if err != nil {
			return Command{}, false, fmt.Errorf("bad command number in %q: %w", line, err)
		}
		cmd.Number = int(n)
		i = j
	}
	for i < len(line) {
		if isSpace(line[i]) {
			i++
			continue
		}
		if line[i] == ';' || line[i] == '(' {
			cmd.Comment = line[i:]
			break
		}
		if !isLetter(line[i]) {
			i++
			continue
		}
		p := toUpper(line[i])
		v, j, err := number(line, i+1)
		if err != nil {
			return Command{}, false, fmt.Errorf("bad value for %c in %q: %w", p, line, err)
		}
		cmd.Params[p] = v
		i = j
	}
	return cmd, true, nil
}

// ReadConfig controls how Parse interprets a file.
type ReadConfig struct {
	// Relative treats coordinates as deltas. Moves before the first
	// G91 are ignored, as they belong to the printer's start sequence.
	Relative bool

	// TravelLength is the length above which a travel counts as a
	// true travel rather than a hop between neighbouring features.
	TravelLength float64
}

// DefaultReadConfig is used when Parse is passed a nil config.
var DefaultReadConfig = ReadConfig{
	Relative:     true,
	TravelLength: 15,
}

// Program is the toolpath recovered from a G-code file.
type Program struct {
	Print  []paths.Path
	Travel []paths.Path

	// True travels are the travels longer than the configured
	// TravelLength.
	TrueTravels      int
	TrueTravelLength float64
	ShortTravels     int

	Extrusion float64
	Lines     int
}

type polyline struct {
	pts []mgl64.Vec3
}

func (pl *polyline) length() float64 {
	d := 0.0
	for i := 1; i < len(pl.pts); i++ {
		d += pl.pts[i].Sub(pl.pts[i-1]).Len()
	}
	return d
}

// Parse reads G-code from r and splits it into print and travel
// polylines.
func Parse(r io.Reader, cfg *ReadConfig) (*Program, error) {
	if cfg == nil {
		cfg = &DefaultReadConfig
	}
	prog := &Program{}
	waiting := cfg.Relative
	var pos mgl64.Vec3
	var printing, travel polyline
	printing.pts = []mgl64.Vec3{pos}

	endPrint := func() {
		if len(printing.pts) > 1 {
			prog.Print = append(prog.Print, paths.Path{V: printing.pts})
		}
		printing.pts = nil
	}
	endTravel := func() {
		if len(travel.pts) > 1 {
			prog.Travel = append(prog.Travel, paths.Path{V: travel.pts})
			if d := travel.length(); d > cfg.TravelLength {
				prog.TrueTravels++
				prog.TrueTravelLength += d
			} else {
				prog.ShortTravels++
			}
		}
		travel.pts = nil
	}
	next := func(c *Command) mgl64.Vec3 {
		var p mgl64.Vec3
		if !cfg.Relative {
			p = pos
		}
		for i, ax := range []byte{'X', 'Y', 'Z'} {
			if v, ok := c.Params[ax]; ok {
				p[i] = v
			}
		}
		if cfg.Relative {
			p = pos.Add(p)
		}
		return p
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		prog.Lines++
		cmd, ok, err := ParseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", prog.Lines, err)
		}
		if !ok || cmd.Letter != 'G' {
			continue
		}
		if waiting {
			if cmd.Number == 91 {
				waiting = false
			}
			continue
		}
		moves := cmd.Has('X') || cmd.Has('Y') || cmd.Has('Z')
		switch cmd.Number {
		case 1:
			if e, ok := cmd.Params['E']; ok {
				prog.Extrusion += e
			}
			if !moves {
				continue
			}
			if len(travel.pts) > 0 {
				endTravel()
			}
			if len(printing.pts) == 0 {
				printing.pts = append(printing.pts, pos)
			}
			pos = next(&cmd)
			printing.pts = append(printing.pts, pos)
		case 0:
			if !moves {
				continue
			}
			if len(printing.pts) > 0 {
				endPrint()
			}
			if len(travel.pts) == 0 {
				travel.pts = append(travel.pts, pos)
			}
			pos = next(&cmd)
			travel.pts = append(travel.pts, pos)
		case 90:
			cfg2 := *cfg
			cfg2.Relative = false
			cfg = &cfg2
		case 91:
			cfg2 := *cfg
			cfg2.Relative = true
			cfg = &cfg2
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	endPrint()
	endTravel()
	log.Infof("%d travels longer than %g mm, total length %.0f mm", prog.TrueTravels, cfg.TravelLength, prog.TrueTravelLength)
	return prog, nil
}

package paths

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/JoshVarga/svgparser"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tliron/commonlog"
	"golang.org/x/net/html/charset"
)

var log = commonlog.GetLogger("clayturtle.paths")

// circleSteps is the number of sides used for circle elements.
const circleSteps = 72

func parseBounds(e *svgparser.Element) (Bounds, error) {
	if vb := strings.Fields(strings.ReplaceAll(e.Attributes["viewBox"], ",", " ")); len(vb) == 4 {
		f, err := parseFloats(vb)
		if err != nil {
			return Bounds{}, fmt.Errorf("bad viewBox: %w", err)
		}
		return Bounds{
			Min: mgl64.Vec3{f[0], f[1], 0},
			Max: mgl64.Vec3{f[0] + f[2], f[1] + f[3], 0},
		}, nil
	}
	width, werr := strconv.ParseFloat(strings.TrimSuffix(e.Attributes["width"], "mm"), 64)
	height, herr := strconv.ParseFloat(strings.TrimSuffix(e.Attributes["height"], "mm"), 64)
	if werr != nil {
		return Bounds{}, werr
	}
	if herr != nil {
		return Bounds{}, herr
	}
	return Bounds{
		Max: mgl64.Vec3{width, height, 0},
	}, nil
}

// attrFloats parses the named attributes of e, stopping at the first
// error.
func attrFloats(e *svgparser.Element, names ...string) ([]float64, error) {
	r := make([]float64, len(names))
	for i, n := range names {
		s, ok := e.Attributes[n]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("<%s %s=%q>: %w", e.Name, n, s, err)
		}
		r[i] = f
	}
	return r, nil
}

func parseLine(ps *Paths, xform *svgXform, e *svgparser.Element) error {
	f, err := attrFloats(e, "x1", "y1", "x2", "y2")
	if err != nil {
		return err
	}
	ps.move(xform.Apply(mgl64.Vec3{f[0], f[1], 0}))
	ps.line(xform.Apply(mgl64.Vec3{f[2], f[3], 0}))
	return nil
}

func parseRect(ps *Paths, xform *svgXform, e *svgparser.Element) error {
	f, err := attrFloats(e, "x", "y", "width", "height")
	if err != nil {
		return err
	}
	x, y, w, h := f[0], f[1], f[2], f[3]
	corners := []mgl64.Vec3{{x, y, 0}, {x + w, y, 0}, {x + w, y + h, 0}, {x, y + h, 0}, {x, y, 0}}
	p := Path{}
	for _, c := range corners {
		p.V = append(p.V, xform.Apply(c))
	}
	ps.P = append(ps.P, p)
	return nil
}

func parseCircle(ps *Paths, xform *svgXform, e *svgparser.Element) error {
	f, err := attrFloats(e, "cx", "cy", "r")
	if err != nil {
		return err
	}
	c := Circle(mgl64.Vec3{f[0], f[1], 0}, f[2], circleSteps)
	for i, v := range c.V {
		c.V[i] = xform.Apply(v)
	}
	ps.P = append(ps.P, c)
	return nil
}

func parsePoly(ps *Paths, xform *svgXform, e *svgparser.Element, closed bool) error {
	fs := strings.Fields(strings.ReplaceAll(e.Attributes["points"], ",", " "))
	if len(fs)%2 != 0 {
		return fmt.Errorf("<%s> has an odd number of coordinates", e.Name)
	}
	f, err := parseFloats(fs)
	if err != nil {
		return err
	}
	p := Path{}
	for i := 0; i < len(f); i += 2 {
		p.V = append(p.V, xform.Apply(mgl64.Vec3{f[i], f[i+1], 0}))
	}
	if closed {
		p = p.Close()
	}
	ps.P = append(ps.P, p)
	return nil
}

type xformScannerState int

const (
	xfsName xformScannerState = 1 + iota
	xfsBra
	xfsMaybeComma
	xfsArg
)

func parseFloats(a []string) ([]float64, error) {
	var r []float64
	for _, x := range a {
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, err
		}
		r = append(r, f)
	}
	return r, nil
}

func svgXformTranslate(x, y float64) *svgXform {
	return &svgXform{M: mgl64.Translate2D(x, y)}
}

func svgXformScale(x, y float64) *svgXform {
	return &svgXform{M: mgl64.Scale2D(x, y)}
}

func svgXformRotate(deg float64) *svgXform {
	return &svgXform{M: mgl64.HomogRotate2D(mgl64.DegToRad(deg))}
}

func parseSingleXform(name string, args []string) (*svgXform, error) {
	fa, err := parseFloats(args)
	if err != nil {
		return nil, err
	}
	switch name {
	case "translate":
		if len(fa) != 1 && len(fa) != 2 {
			return nil, fmt.Errorf("translate should have one or two parameters: got %s", args)
		}
		if len(fa) == 1 {
			fa = append(fa, 0)
		}
		return svgXformTranslate(fa[0], fa[1]), nil
	case "scale":
		if len(fa) != 1 && len(fa) != 2 {
			return nil, fmt.Errorf("scale should have one or two parameters: got %s", args)
		}
		if len(fa) == 1 {
			fa = append(fa, fa[0])
		}
		return svgXformScale(fa[0], fa[1]), nil
	case "rotate":
		switch len(fa) {
		case 1:
			return svgXformRotate(fa[0]), nil
		case 3:
			// rotate about (cx, cy)
			xf := svgXformTranslate(fa[1], fa[2])
			xf = xf.Compose(svgXformRotate(fa[0]))
			return xf.Compose(svgXformTranslate(-fa[1], -fa[2])), nil
		}
		return nil, fmt.Errorf("rotate should have one or three parameters: got %s", args)
	case "matrix":
		if len(fa) != 6 {
			return nil, fmt.Errorf("matrix should have six parameters: got %s", args)
		}
		// column-major, as mathgl stores it
		return &svgXform{M: mgl64.Mat3{fa[0], fa[1], 0, fa[2], fa[3], 0, fa[4], fa[5], 1}}, nil
	default:
		return nil, fmt.Errorf("unknown transform function %q", name)
	}
}

func parseSVGXForm(x string) (*svgXform, error) {
	var s scanner.Scanner
	xf := svgIdentity
	s.Init(strings.NewReader(x))
	state := xfsName
	fname := ""
	neg := false
	var args []string
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		switch state {
		case xfsName:
			if tok != scanner.Ident {
				return nil, fmt.Errorf("failed to parse transform: expected transform name, but got %q", s.TokenText())
			}
			fname = s.TokenText()
			state = xfsBra
		case xfsBra:
			if tok != '(' {
				return nil, fmt.Errorf("failed to parse transform: expected (, but got %q", s.TokenText())
			}
			state = xfsArg
		case xfsMaybeComma:
			if tok == ',' {
				state = xfsArg
				continue
			}
			fallthrough
		case xfsArg:
			if tok == ')' {
				newxform, err := parseSingleXform(fname, args)
				if err != nil {
					return nil, err
				}
				xf = xf.Compose(newxform)
				state = xfsName
				args = nil
			} else if tok == '-' {
				neg = true
			} else if tok == scanner.Float || tok == scanner.Int {
				a := s.TokenText()
				if neg {
					a = "-" + a
					neg = false
				}
				args = append(args, a)
				state = xfsMaybeComma
			} else {
				return nil, fmt.Errorf("unexpected token %q parsing transform %q", s.TokenText(), x)
			}
		}
	}
	if state != xfsName {
		return nil, fmt.Errorf("failed to parse transform: %q", x)
	}
	return xf, nil
}

// parsePath understands absolute M, L and Z commands, with
// coordinates separated by spaces or commas. Curves are handled by
// FromSVGDrawing.
func parsePath(ps *Paths, xf *svgXform, e *svgparser.Element) error {
	parts := strings.Fields(strings.ReplaceAll(e.Attributes["d"], ",", " "))
	move := false
	var xy mgl64.Vec3
	var xyp int
	for _, p := range parts {
		for len(p) > 0 {
			switch p[0] {
			case 'M':
				if xyp != 0 {
					return fmt.Errorf("got odd number of components before M")
				}
				move = true
				p = p[1:]
				continue
			case 'L':
				if xyp != 0 {
					return fmt.Errorf("got odd number of components before L")
				}
				p = p[1:]
				continue
			case 'Z', 'z':
				if xyp != 0 {
					return fmt.Errorf("got odd number of components before Z")
				}
				if len(ps.P) > 0 {
					last := &ps.P[len(ps.P)-1]
					*last = last.Close()
				}
				p = p[1:]
				continue
			}
			break
		}
		if len(p) == 0 {
			continue
		}
		x, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return err
		}
		xy[xyp] = x
		xyp++
		if xyp == 2 {
			if move || len(ps.P) == 0 {
				ps.P = append(ps.P, Path{})
			}
			ps.P[len(ps.P)-1].V = append(ps.P[len(ps.P)-1].V, xf.Apply(xy))
			move = false
			xyp = 0
		}
	}
	if xyp != 0 {
		return fmt.Errorf("got stray component in path")
	}
	return nil
}

// svgXform is a 2d affine transform in homogeneous coordinates.
type svgXform struct {
	M mgl64.Mat3
}

func (xf *svgXform) Compose(xf2 *svgXform) *svgXform {
	return &svgXform{M: xf.M.Mul3(xf2.M)}
}

func (xf *svgXform) Apply(v mgl64.Vec3) mgl64.Vec3 {
	r := xf.M.Mul3x1(mgl64.Vec3{v[0], v[1], 1})
	return mgl64.Vec3{r[0] / r[2], r[1] / r[2], v[2]}
}

var svgIdentity = &svgXform{M: mgl64.Ident3()}

func parsePaths(p *Paths, xform *svgXform, e *svgparser.Element) error {
	for _, c := range e.Children {
		xf := xform
		if t, ok := c.Attributes["transform"]; ok && c.Name != "g" {
			cxf, err := parseSVGXForm(t)
			if err != nil {
				return err
			}
			xf = xform.Compose(cxf)
		}
		var err error
		switch c.Name {
		case "g":
			gxf, gerr := parseSVGXForm(c.Attributes["transform"])
			if gerr != nil {
				return gerr
			}
			err = parsePaths(p, xform.Compose(gxf), c)
		case "path":
			err = parsePath(p, xf, c)
		case "line":
			err = parseLine(p, xf, c)
		case "rect":
			err = parseRect(p, xf, c)
		case "circle":
			err = parseCircle(p, xf, c)
		case "polygon":
			err = parsePoly(p, xf, c, true)
		case "polyline":
			err = parsePoly(p, xf, c, false)
		case "defs", "title", "desc", "metadata":
			continue
		default:
			log.Warningf("ignoring unknown svg element %q", c.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// FromSVG parses an SVG file, extracting paths.
// This provides only limited SVG parsing support, and
// will fail or produce incorrect results if the SVG file
// uses features that it doesn't understand.
func FromSVG(r io.Reader) (p *Paths, rerr error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.CharsetReader = charset.NewReaderLabel
	elt, err := svgparser.DecodeFirst(decoder)
	if err != nil {
		return nil, err
	}
	if err := elt.Decode(decoder); err != nil && err != io.EOF {
		return nil, err
	}
	bs, err := parseBounds(elt)
	if err != nil {
		return nil, err
	}
	p = &Paths{Bounds: bs}
	return p, parsePaths(p, svgIdentity, elt)
}

var (
	svgh = `<svg height="%d" width="%d" viewBox="%d %d %d %d" version="1.1" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">`
)

// Style is the stroke used for one group of paths in an SVG preview.
type Style struct {
	Stroke string
	Width  float64
}

// DefaultStyle is a thin black stroke.
var DefaultStyle = Style{Stroke: "black", Width: 0.1}

// SVG writes an SVG file that contains black strokes along the paths,
// projected onto the XY plane.
func (ps *Paths) SVG(w io.Writer) error {
	return WriteSVG(w, ps.Bounds, []Style{DefaultStyle}, [][]Path{ps.P})
}

// WriteSVG writes an SVG file containing one stroked group per entry
// of groups, styled by the matching entry of styles.
func WriteSVG(w io.Writer, b Bounds, styles []Style, groups [][]Path) error {
	var werr error
	bi := bufio.NewWriter(w)
	wr := func(f string, args ...interface{}) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bi, f, args...)
	}
	minX, minY := math.Floor(b.Min[0]), math.Floor(b.Min[1])
	width, height := math.Ceil(b.Max[0]-minX), math.Ceil(b.Max[1]-minY)
	wr(svgh, int(height), int(width), int(minX), int(minY), int(width), int(height))
	wr("\n")
	for gi, g := range groups {
		st := DefaultStyle
		if gi < len(styles) {
			st = styles[gi]
		}
		wr("<g fill=\"none\" stroke=\"%s\" stroke-width=\"%g\">\n", st.Stroke, st.Width)
		for _, p := range g {
			if len(p.V) == 0 {
				continue
			}
			wr(`<path d="`)
			for i, v := range p.V {
				if i == 0 {
					wr("M %.2f, %.2f", v[0], v[1])
				} else {
					wr(" %.2f, %.2f", v[0], v[1])
				}
			}
			wr("\"/>\n")
		}
		wr("</g>")
	}
	wr("</svg>")
	if werr == nil {
		werr = bi.Flush()
	}
	return werr
}

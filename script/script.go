// Package script runs JavaScript programs that drive a turtle.
//
// Turtle operations are JavaScript globals named as in the turtle
// libraries potters already use (forward, set_position, lift, ...),
// with the classic short aliases fd, bk, lt, rt, pu and pd:
//
//	set_extrude_rate(2.5);
//	for (var i = 0; i < 36; i++) { fd(5); rt(10); }
//	lift(get_layer_height());
package script

import (
	"fmt"

	"github.com/paulhankin/clayturtle/history"
	"github.com/paulhankin/clayturtle/shapes"
	"github.com/paulhankin/clayturtle/turtle"
	"github.com/robertkrimen/otto"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.script")

// aliases are evaluated after the bindings are installed.
const aliases = `
fd = forward;
bk = back = backward;
lt = left;
rt = right;
pu = pen_up = penup;
pd = pen_down = pendown;
rate = set_feedrate = set_speed;
set_angle = set_heading;
set_nozzle = set_nozzle_size;
`

type host struct {
	vm *otto.Otto
	t  *turtle.Turtle
}

// throw aborts the running script with a JavaScript error.
func (h *host) throw(format string, args ...interface{}) {
	panic(h.vm.MakeCustomError("TurtleError", fmt.Sprintf(format, args...)))
}

// args are the arguments of a call to the binding name.
type args struct {
	h    *host
	name string
	call otto.FunctionCall
}

func (a args) float(i int) float64 {
	v := a.call.Argument(i)
	if v.IsUndefined() {
		a.h.throw("%s: missing argument %d", a.name, i+1)
	}
	f, err := v.ToFloat()
	if err != nil {
		a.h.throw("%s: argument %d: %s", a.name, i+1, err)
	}
	return f
}

// optFloat returns argument i, or def if it was not given.
func (a args) optFloat(i int, def float64) float64 {
	if a.call.Argument(i).IsUndefined() {
		return def
	}
	return a.float(i)
}

func (a args) int(i int) int {
	return int(a.float(i))
}

func (a args) bool(i int) bool {
	b, err := a.call.Argument(i).ToBoolean()
	if err != nil {
		a.h.throw("%s: argument %d: %s", a.name, i+1, err)
	}
	return b
}

func (a args) string(i int) string {
	v := a.call.Argument(i)
	if v.IsUndefined() {
		a.h.throw("%s: missing argument %d", a.name, i+1)
	}
	return v.String()
}

func (h *host) value(x interface{}) otto.Value {
	v, err := h.vm.ToValue(x)
	if err != nil {
		h.throw("%s", err)
	}
	return v
}

// set binds fn to the global name. fn returns nil for undefined.
func (h *host) set(name string, fn func(a args) interface{}) {
	err := h.vm.Set(name, func(call otto.FunctionCall) otto.Value {
		r := fn(args{h: h, name: name, call: call})
		if r == nil {
			return otto.UndefinedValue()
		}
		return h.value(r)
	})
	if err != nil {
		panic(fmt.Sprintf("binding %s: %s", name, err))
	}
}

func (h *host) bind() {
	t := h.t
	for name, f := range map[string]func(){
		"penup":            t.PenUp,
		"pendown":          t.PenDown,
		"pause_and_wait":   t.PauseAndWait,
		"write_parameters": t.WriteParameters,
	} {
		f := f
		h.set(name, func(args) interface{} { f(); return nil })
	}
	for name, f := range map[string]func(float64){
		"forward":           t.Forward,
		"backward":          t.Backward,
		"left":              t.Left,
		"right":             t.Right,
		"yaw":               t.Yaw,
		"pitch":             t.Pitch,
		"roll":              t.Roll,
		"pitch_up":          t.PitchUp,
		"pitch_down":        t.PitchDown,
		"roll_left":         t.RollLeft,
		"roll_right":        t.RollRight,
		"lift":              t.Lift,
		"set_z":             t.SetZ,
		"set_speed":         t.SetSpeed,
		"dwell":             t.Dwell,
		"pause":             t.Pause,
		"pause_seconds":     func(s float64) { t.Pause(s * 1000) },
		"extrude":           t.Extrude,
		"set_bed_temp":      t.SetBedTemp,
		"set_extruder_temp": t.SetExtruderTemp,
		"set_extrude_width": t.SetExtrudeWidth,
		"set_layer_height":  t.SetLayerHeight,
		"set_extrude_rate":  t.SetExtrudeRate,
		"set_resolution":    t.SetResolution,
		"set_density":       t.SetDensity,
		"set_nozzle_size":   t.SetNozzleSize,
	} {
		f := f
		h.set(name, func(a args) interface{} { f(a.float(0)); return nil })
	}
	for name, f := range map[string]func() interface{}{
		"getX":              func() interface{} { return t.X() },
		"getY":              func() interface{} { return t.Y() },
		"getZ":              func() interface{} { return t.Z() },
		"get_position":      func() interface{} { p := t.Position(); return []float64{p[0], p[1], p[2]} },
		"get_vector":        func() interface{} { v := t.Heading(); return []float64{v[0], v[1], v[2]} },
		"get_heading":       func() interface{} { return []float64{t.YawAngle(), t.PitchAngle(), t.RollAngle()} },
		"get_yaw":           func() interface{} { return t.YawAngle() },
		"get_pitch":         func() interface{} { return t.PitchAngle() },
		"get_roll":          func() interface{} { return t.RollAngle() },
		"get_pen":           func() interface{} { return t.Pen() },
		"get_printer":       func() interface{} { return t.Printer() },
		"get_layer_height":  func() interface{} { return t.LayerHeight() },
		"get_extrude_width": func() interface{} { return t.ExtrudeWidth() },
		"get_extrude_rate":  func() interface{} { return t.ExtrudeRate() },
		"get_speed":         func() interface{} { return t.Speed() },
		"get_resolution":    func() interface{} { return t.Resolution() },
		"get_density":       func() interface{} { return t.Density() },
		"get_nozzle_size":   func() interface{} { return t.Nozzle() },
		"get_mix_factor":    func() interface{} { return t.MixFactor() },
	} {
		f := f
		h.set(name, func(args) interface{} { return f() })
	}

	h.set("forward_lift", func(a args) interface{} {
		t.ForwardLift(a.float(0), a.float(1))
		return nil
	})
	h.set("set_xy", func(a args) interface{} {
		t.SetXY(a.float(0), a.float(1))
		return nil
	})
	h.set("set_position", func(a args) interface{} {
		p := t.Position()
		p[0] = a.optFloat(0, p[0])
		p[1] = a.optFloat(1, p[1])
		p[2] = a.optFloat(2, p[2])
		t.SetPosition(p)
		return nil
	})
	h.set("set_heading", func(a args) interface{} {
		t.SetHeading(a.float(0), a.optFloat(1, 0), a.optFloat(2, 0))
		return nil
	})
	h.set("change_heading", func(a args) interface{} {
		t.ChangeHeading(a.optFloat(0, 0), a.optFloat(1, 0), a.optFloat(2, 0))
		return nil
	})
	h.set("set_color", func(a args) interface{} {
		t.SetColor(history.Color{
			R: uint8(a.optFloat(0, 0)),
			G: uint8(a.optFloat(1, 0)),
			B: uint8(a.optFloat(2, 0)),
		})
		return nil
	})
	h.set("use_degrees", func(a args) interface{} {
		t.UseDegrees(a.bool(0))
		return nil
	})
	h.set("set_mix_factor", func(a args) interface{} {
		if err := t.SetMixFactor(a.float(0)); err != nil {
			h.throw("%s", err)
		}
		return nil
	})
	h.set("set_material", func(a args) interface{} {
		if err := t.SetMaterial(a.string(0)); err != nil {
			h.throw("%s", err)
		}
		return nil
	})
	h.set("set_extruder", func(a args) interface{} {
		t.SetExtruder(a.int(0))
		return nil
	})
	h.set("comment", func(a args) interface{} {
		t.Comment(a.string(0))
		return nil
	})
	h.set("raw", func(a args) interface{} {
		t.Raw(a.string(0))
		return nil
	})
	h.set("print", func(a args) interface{} {
		log.Infof("%s", a.call.Argument(0).String())
		return nil
	})

	h.set("polygon", func(a args) interface{} {
		return shapes.NonCenteredPolygon(t, a.float(0), a.int(1))
	})
	h.set("centered_polygon", func(a args) interface{} {
		return shapes.CenteredPolygon(t, a.float(0), a.int(1))
	})
	h.set("circle", func(a args) interface{} {
		shapes.Circle(t, a.float(0), int(a.optFloat(1, 100)), 0, 1)
		return nil
	})
	h.set("zigzag_circle", func(a args) interface{} {
		shapes.ZigZagCircle(t, a.float(0), a.float(1), a.float(2), a.bool(3))
		return nil
	})
}

// Run runs the JavaScript program src against t. Errors thrown by the
// program, including bad arguments to turtle operations, are returned
// with their JavaScript location.
func Run(src string, t *turtle.Turtle) error {
	h := &host{vm: otto.New(), t: t}
	h.bind()
	if _, err := h.vm.Run(aliases); err != nil {
		return fmt.Errorf("installing aliases: %w", err)
	}
	if _, err := h.vm.Run(src); err != nil {
		if jsErr, ok := err.(*otto.Error); ok {
			return fmt.Errorf("script: %s", jsErr.String())
		}
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

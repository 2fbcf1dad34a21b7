// Package script drives an editing session from Lua. Scripts call functions
// on the global easel table; every pointer call advances the session by one
// frame so strokes go through the same pipeline as interactive input.
//
//	easel.tool("rect-fill")
//	easel.color("#ff0000")
//	easel.drag(10, 10, 60, 40)
//	easel.filter("blur:5")
//	easel.save("out.png")
package script

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
	"github.com/golang/glog"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/tools"
)

// ErrLimitExceeded is returned when a script runs past its CPU or memory
// allowance.
var ErrLimitExceeded = errors.New("script: resource limit exceeded")

// Config bounds a script run.
type Config struct {
	// CPULimit is the Lua instruction budget; 0 means unlimited.
	CPULimit uint64
	// MemoryLimit is the allocation budget in bytes; 0 means unlimited.
	MemoryLimit uint64
	// Stdout receives print output; nil uses os.Stdout.
	Stdout io.Writer
}

// DefaultConfig allows 50M instructions and 64 MiB.
func DefaultConfig() Config {
	return Config{
		CPULimit:    50_000_000,
		MemoryLimit: 64 << 20,
		Stdout:      os.Stdout,
	}
}

// Runner owns a Lua runtime bound to one session.
type Runner struct {
	cfg     Config
	session *canvas.Session
	tracker canvas.Tracker
	runtime *rt.Runtime
	cleanup func()
}

// New prepares a runtime with the standard library and the easel table.
func New(s *canvas.Session, cfg Config) (*Runner, error) {
	if s == nil {
		return nil, errors.New("script: nil session")
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	runtime := rt.New(stdout)
	r := &Runner{
		cfg:     cfg,
		session: s,
		runtime: runtime,
		cleanup: lib.LoadAll(runtime),
	}
	r.register()
	return r, nil
}

// Close releases the runtime. The session is left to its owner.
func (r *Runner) Close() {
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
}

// RunFile executes the script at path.
func (r *Runner) RunFile(path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return r.RunString(path, string(code))
}

// RunString executes code. A script that exhausts its limits returns
// ErrLimitExceeded.
func (r *Runner) RunString(name, code string) (err error) {
	closure, err := r.runtime.CompileAndLoadLuaChunk(name, []byte(code), rt.TableValue(r.runtime.GlobalEnv()))
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}
	r.runtime.PushContext(rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    r.cfg.CPULimit,
			Memory: r.cfg.MemoryLimit,
		},
	})
	defer r.runtime.PopContext()
	// golua panics when a hard limit is hit.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrLimitExceeded, p)
		}
	}()
	glog.V(1).Infof("script: running %s", name)
	if _, err := rt.Call1(r.runtime.MainThread(), rt.FunctionValue(closure)); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

func (r *Runner) register() {
	t := rt.NewTable()
	set := func(name string, fn rt.GoFunctionFunc, nArgs int, variadic bool) {
		f := rt.NewGoFunction(fn, name, nArgs, variadic)
		rt.SolemnlyDeclareCompliance(rt.ComplyMemSafe|rt.ComplyCpuSafe, f)
		t.Set(rt.StringValue(name), rt.FunctionValue(f))
	}
	set("tool", r.luaTool, 1, false)
	set("size", r.luaSize, 1, false)
	set("color", r.luaColor, 1, false)
	set("move", r.luaMove, 2, false)
	set("press", r.luaPress, 0, true)
	set("release", r.luaRelease, 0, true)
	set("drag", r.luaDrag, 4, true)
	set("pan", r.luaPan, 2, false)
	set("frame", r.luaFrame, 0, true)
	set("filter", r.luaFilter, 1, false)
	set("load", r.luaLoad, 1, false)
	set("save", r.luaSave, 1, false)
	set("dimensions", r.luaDimensions, 0, false)
	set("pixel", r.luaPixel, 2, false)
	r.runtime.GlobalEnv().Set(rt.StringValue("easel"), rt.TableValue(t))
}

// step samples the tracker and runs one frame.
func (r *Runner) step() error {
	r.session.SetInput(r.tracker.Sample())
	return r.session.Frame()
}

func allArgs(c *rt.GoCont) []rt.Value {
	return append(c.Args(), c.Etc()...)
}

func intArg(args []rt.Value, idx int) (int, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("argument %d missing", idx+1)
	}
	if i, ok := args[idx].TryInt(); ok {
		return int(i), nil
	}
	if f, ok := args[idx].TryFloat(); ok {
		return int(f), nil
	}
	return 0, fmt.Errorf("argument %d is not a number", idx+1)
}

func stringArg(args []rt.Value, idx int) (string, bool) {
	if idx >= len(args) {
		return "", false
	}
	return args[idx].TryString()
}

func parseButton(s string) (canvas.Button, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return canvas.Left, nil
	case "right":
		return canvas.Right, nil
	case "middle":
		return canvas.Middle, nil
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

// buttonArg reads an optional button name at idx.
func buttonArg(args []rt.Value, idx int) (canvas.Button, error) {
	s, _ := stringArg(args, idx)
	return parseButton(s)
}

func (r *Runner) luaTool(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	name, err := c.StringArg(0)
	if err != nil {
		return nil, fmt.Errorf("easel.tool: %w", err)
	}
	k, err := tools.ParseKind(name)
	if err != nil {
		return nil, fmt.Errorf("easel.tool: %w", err)
	}
	r.session.Tool.Kind = k
	return c.Next(), nil
}

func (r *Runner) luaSize(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	n, err := intArg(allArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("easel.size: %w", err)
	}
	if err := r.session.Tool.SetSize(n); err != nil {
		return nil, fmt.Errorf("easel.size: %w", err)
	}
	return c.Next(), nil
}

func (r *Runner) luaColor(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	spec, err := c.StringArg(0)
	if err != nil {
		return nil, fmt.Errorf("easel.color: %w", err)
	}
	col, err := tools.ParseColor(spec)
	if err != nil {
		return nil, fmt.Errorf("easel.color: %w", err)
	}
	r.session.Tool.Color = col
	return c.Next(), nil
}

func (r *Runner) luaMove(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := allArgs(c)
	x, err := intArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("easel.move: %w", err)
	}
	y, err := intArg(args, 1)
	if err != nil {
		return nil, fmt.Errorf("easel.move: %w", err)
	}
	r.tracker.Move(image.Pt(x, y))
	if err := r.step(); err != nil {
		return nil, fmt.Errorf("easel.move: %w", err)
	}
	return c.Next(), nil
}

// luaPress handles easel.press([button], [x, y]).
func (r *Runner) luaPress(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := allArgs(c)
	off := 0
	b := canvas.Left
	if name, ok := stringArg(args, 0); ok {
		var err error
		if b, err = parseButton(name); err != nil {
			return nil, fmt.Errorf("easel.press: %w", err)
		}
		off = 1
	}
	if len(args) >= off+2 {
		x, err := intArg(args, off)
		if err != nil {
			return nil, fmt.Errorf("easel.press: %w", err)
		}
		y, err := intArg(args, off+1)
		if err != nil {
			return nil, fmt.Errorf("easel.press: %w", err)
		}
		r.tracker.Move(image.Pt(x, y))
	}
	r.tracker.Press(b)
	if err := r.step(); err != nil {
		return nil, fmt.Errorf("easel.press: %w", err)
	}
	return c.Next(), nil
}

func (r *Runner) luaRelease(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	b, err := buttonArg(allArgs(c), 0)
	if err != nil {
		return nil, fmt.Errorf("easel.release: %w", err)
	}
	r.tracker.Release(b)
	if err := r.step(); err != nil {
		return nil, fmt.Errorf("easel.release: %w", err)
	}
	return c.Next(), nil
}

// luaDrag handles easel.drag(x0, y0, x1, y1, [button]): press, one move
// frame, release.
func (r *Runner) luaDrag(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := allArgs(c)
	var pts [4]int
	for i := range pts {
		v, err := intArg(args, i)
		if err != nil {
			return nil, fmt.Errorf("easel.drag: %w", err)
		}
		pts[i] = v
	}
	b, err := buttonArg(args, 4)
	if err != nil {
		return nil, fmt.Errorf("easel.drag: %w", err)
	}
	r.tracker.Move(image.Pt(pts[0], pts[1]))
	r.tracker.Press(b)
	if err := r.step(); err != nil {
		return nil, fmt.Errorf("easel.drag: %w", err)
	}
	r.tracker.Move(image.Pt(pts[2], pts[3]))
	if err := r.step(); err != nil {
		return nil, fmt.Errorf("easel.drag: %w", err)
	}
	r.tracker.Release(b)
	if err := r.step(); err != nil {
		return nil, fmt.Errorf("easel.drag: %w", err)
	}
	return c.Next(), nil
}

func (r *Runner) luaPan(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := allArgs(c)
	dx, err := intArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("easel.pan: %w", err)
	}
	dy, err := intArg(args, 1)
	if err != nil {
		return nil, fmt.Errorf("easel.pan: %w", err)
	}
	r.tracker.Nudge(dx, dy)
	if err := r.step(); err != nil {
		return nil, fmt.Errorf("easel.pan: %w", err)
	}
	return c.Next(), nil
}

// luaFrame handles easel.frame([n]).
func (r *Runner) luaFrame(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	n := 1
	if args := allArgs(c); len(args) > 0 {
		v, err := intArg(args, 0)
		if err != nil {
			return nil, fmt.Errorf("easel.frame: %w", err)
		}
		n = v
	}
	for i := 0; i < n; i++ {
		if err := r.step(); err != nil {
			return nil, fmt.Errorf("easel.frame: %w", err)
		}
	}
	return c.Next(), nil
}

func (r *Runner) luaFilter(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	name, err := c.StringArg(0)
	if err != nil {
		return nil, fmt.Errorf("easel.filter: %w", err)
	}
	if err := r.session.ApplyFilterByName(name); err != nil {
		return nil, fmt.Errorf("easel.filter: %w", err)
	}
	return c.Next(), nil
}

func (r *Runner) luaLoad(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	path, err := c.StringArg(0)
	if err != nil {
		return nil, fmt.Errorf("easel.load: %w", err)
	}
	if err := r.session.LoadFile(path); err != nil {
		return nil, fmt.Errorf("easel.load: %w", err)
	}
	return c.Next(), nil
}

func (r *Runner) luaSave(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	path, err := c.StringArg(0)
	if err != nil {
		return nil, fmt.Errorf("easel.save: %w", err)
	}
	if err := r.session.Save(path); err != nil {
		return nil, fmt.Errorf("easel.save: %w", err)
	}
	return c.Next(), nil
}

func (r *Runner) luaDimensions(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := r.session.Active
	return c.PushingNext(t.Runtime, rt.IntValue(int64(a.Width())), rt.IntValue(int64(a.Height()))), nil
}

// luaPixel returns the active canvas colour at x, y as #rrggbbaa, or nil
// outside the canvas.
func (r *Runner) luaPixel(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	args := allArgs(c)
	x, err := intArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("easel.pixel: %w", err)
	}
	y, err := intArg(args, 1)
	if err != nil {
		return nil, fmt.Errorf("easel.pixel: %w", err)
	}
	if !image.Pt(x, y).In(r.session.Active.Bounds()) {
		return c.PushingNext1(t.Runtime, rt.NilValue), nil
	}
	col := r.session.Active.At(x, y)
	s := fmt.Sprintf("#%02x%02x%02x%02x", col.R, col.G, col.B, col.A)
	return c.PushingNext1(t.Runtime, rt.StringValue(s)), nil
}

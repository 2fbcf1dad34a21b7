package external

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/example/easel/internal/imageio"
	"github.com/example/easel/internal/pixbuf"
)

// Command runs an external program over PNG files in a scratch directory.
// Template is split on whitespace and each argument may contain the
// placeholders {input}, {output}, {style}, {factor} and {tile}.
//
//	realesrgan-ncnn-vulkan -i {input} -o {output} -s {factor} -t {tile}
type Command struct {
	Template string
	// Dir is where scratch directories are created; empty uses os.TempDir.
	Dir string
}

var (
	_ Upscaler        = (*Command)(nil)
	_ StyleTransferer = (*Command)(nil)
	_ AnomalyDetector = (*Command)(nil)
)

// Args expands the template.
func (c *Command) Args(vars map[string]string) ([]string, error) {
	fields := strings.Fields(c.Template)
	if len(fields) == 0 {
		return nil, ErrNotConfigured
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		for k, v := range vars {
			f = strings.ReplaceAll(f, "{"+k+"}", v)
		}
		out[i] = f
	}
	return out, nil
}

// run writes inputs as PNGs, runs the program and decodes {output}.
func (c *Command) run(ctx context.Context, inputs map[string]*pixbuf.Buffer, vars map[string]string) (*pixbuf.Buffer, error) {
	if strings.TrimSpace(c.Template) == "" {
		return nil, ErrNotConfigured
	}
	dir, err := os.MkdirTemp(c.Dir, "easel-ext-")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)
	if vars == nil {
		vars = map[string]string{}
	}
	for name, buf := range inputs {
		path := filepath.Join(dir, name+".png")
		if err := imageio.Save(path, buf.RGBA(), imageio.Options{}); err != nil {
			return nil, err
		}
		vars[name] = path
	}
	vars["output"] = filepath.Join(dir, "output.png")
	args, err := c.Args(vars)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("external: %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return imageio.Load(vars["output"])
}

func (c *Command) Upscale(ctx context.Context, img *pixbuf.Buffer, factor, tile int) (*pixbuf.Buffer, error) {
	if factor < 1 {
		return nil, fmt.Errorf("upscale factor %d must be positive", factor)
	}
	return c.run(ctx, map[string]*pixbuf.Buffer{"input": img}, map[string]string{
		"factor": strconv.Itoa(factor),
		"tile":   strconv.Itoa(tile),
	})
}

func (c *Command) Transfer(ctx context.Context, content, style *pixbuf.Buffer, params StyleParams) (*pixbuf.Buffer, error) {
	return c.run(ctx, map[string]*pixbuf.Buffer{"input": content, "style": style}, map[string]string{
		"alpha":      strconv.FormatFloat(float64(params.Alpha), 'g', -1, 32),
		"style_size": strconv.Itoa(params.StyleSize),
	})
}

func (c *Command) Detect(ctx context.Context, img *pixbuf.Buffer) (*pixbuf.Buffer, error) {
	return c.run(ctx, map[string]*pixbuf.Buffer{"input": img}, nil)
}

package config

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/example/easel/internal/filter"
	"github.com/example/easel/internal/imageio"
	"github.com/example/easel/internal/tools"
)

// Editor holds the initial tool and surface colours.
type Editor struct {
	Tool      tools.Kind
	Size      int
	Color     color.RGBA
	Workbench color.RGBA
	Eraser    color.RGBA
}

// Filters holds filter engine and encoder settings.
type Filters struct {
	BlurKernel  int
	LegacyBlur  bool
	JPEGQuality int
}

// External holds the commands run for whole-image tasks.
type External struct {
	UpscaleCommand string
	StyleCommand   string
	AnomalyCommand string
	Workers        int
}

// Notify holds notification settings.
type Notify struct {
	Save   bool
	Filter bool
	Task   bool
}

// Config holds the application configuration.
type Config struct {
	ViewportWidth  int
	ViewportHeight int
	SaveDir        string
	Editor         Editor
	Filters        Filters
	External       External
	Notify         Notify
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		ViewportWidth:  1024,
		ViewportHeight: 768,
		Editor: Editor{
			Tool:      tools.Brush,
			Size:      tools.MinSize,
			Color:     color.RGBA{0, 0, 0, 255},
			Workbench: color.RGBA{175, 175, 175, 255},
			Eraser:    color.RGBA{255, 255, 255, 255},
		},
		Filters: Filters{
			BlurKernel:  filter.DefaultBlurKernel,
			JPEGQuality: imageio.DefaultJPEGQuality,
		},
		External: External{Workers: 2},
	}
}

// ToolState returns the configured starting tool.
func (c *Config) ToolState() tools.State {
	return tools.State{Kind: c.Editor.Tool, Size: tools.Clamp(c.Editor.Size), Color: c.Editor.Color}
}

// FilterEngine builds a filter engine from the [filters] section.
func (c *Config) FilterEngine() *filter.Engine {
	e := filter.NewEngine()
	e.BlurKernel = c.Filters.BlurKernel
	e.Legacy = c.Filters.LegacyBlur
	return e
}

// ResolveSavePath places a bare file name under SaveDir. Paths with a
// directory component are returned unchanged.
func (c *Config) ResolveSavePath(path string) string {
	if c.SaveDir == "" || path == "" || filepath.IsAbs(path) || filepath.Base(path) != path {
		return path
	}
	return filepath.Join(c.SaveDir, path)
}

// SaveOptions returns the encoder settings.
func (c *Config) SaveOptions() imageio.Options {
	return imageio.Options{JPEGQuality: c.Filters.JPEGQuality}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "viewport_width = %d\n", c.ViewportWidth)
	fmt.Fprintf(&sb, "viewport_height = %d\n", c.ViewportHeight)
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[editor]\n")
	fmt.Fprintf(&sb, "tool = %s\n", c.Editor.Tool)
	fmt.Fprintf(&sb, "size = %d\n", c.Editor.Size)
	fmt.Fprintf(&sb, "color = %s\n", tools.FormatColor(c.Editor.Color))
	fmt.Fprintf(&sb, "workbench = %s\n", tools.FormatColor(c.Editor.Workbench))
	fmt.Fprintf(&sb, "eraser = %s\n", tools.FormatColor(c.Editor.Eraser))
	sb.WriteString("\n")

	sb.WriteString("[filters]\n")
	fmt.Fprintf(&sb, "blur_kernel = %d\n", c.Filters.BlurKernel)
	fmt.Fprintf(&sb, "legacy_blur = %v\n", c.Filters.LegacyBlur)
	fmt.Fprintf(&sb, "jpeg_quality = %d\n", c.Filters.JPEGQuality)
	sb.WriteString("\n")

	sb.WriteString("[external]\n")
	if c.External.UpscaleCommand != "" {
		fmt.Fprintf(&sb, "upscale_command = \"%s\"\n", c.External.UpscaleCommand)
	}
	if c.External.StyleCommand != "" {
		fmt.Fprintf(&sb, "style_command = \"%s\"\n", c.External.StyleCommand)
	}
	if c.External.AnomalyCommand != "" {
		fmt.Fprintf(&sb, "anomaly_command = \"%s\"\n", c.External.AnomalyCommand)
	}
	fmt.Fprintf(&sb, "workers = %d\n", c.External.Workers)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "filter = %v\n", c.Notify.Filter)
	fmt.Fprintf(&sb, "task = %v\n", c.Notify.Task)

	return sb.String()
}

package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/easel/internal/tools"
)

// Parse reads configuration from an io.Reader. Unknown keys and sections are
// ignored so newer files still load in older builds.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")))
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch currentSection {
		case "":
			err = setRootField(cfg, key, value)
		case "editor":
			err = setEditorField(&cfg.Editor, key, value)
		case "filters":
			err = setFiltersField(&cfg.Filters, key, value)
		case "external":
			err = setExternalField(&cfg.External, key, value)
		case "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			section := currentSection
			if section == "" {
				section = "root"
			}
			return nil, fmt.Errorf("line %d [%s]: %w", lineNo, section, err)
		}
	}

	return cfg, scanner.Err()
}

func parseInt(key, value string, min, max int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s = %d outside %d..%d", key, n, min, max)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	return b, nil
}

func setRootField(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "viewport_width":
		cfg.ViewportWidth, err = parseInt(key, value, 1, 1<<15)
	case "viewport_height":
		cfg.ViewportHeight, err = parseInt(key, value, 1, 1<<15)
	case "save_dir":
		cfg.SaveDir = value
	}
	return err
}

func setEditorField(e *Editor, key, value string) error {
	var err error
	switch key {
	case "tool":
		e.Tool, err = tools.ParseKind(value)
	case "size":
		e.Size, err = parseInt(key, value, tools.MinSize, tools.MaxSize)
	case "color", "colour":
		e.Color, err = tools.ParseColor(value)
	case "workbench":
		e.Workbench, err = tools.ParseColor(value)
	case "eraser":
		e.Eraser, err = tools.ParseColor(value)
	}
	return err
}

func setFiltersField(f *Filters, key, value string) error {
	var err error
	switch key {
	case "blur_kernel":
		f.BlurKernel, err = parseInt(key, value, 1, 99)
		if err == nil && f.BlurKernel%2 == 0 {
			err = fmt.Errorf("blur_kernel = %d must be odd", f.BlurKernel)
		}
	case "legacy_blur":
		f.LegacyBlur, err = parseBool(key, value)
	case "jpeg_quality":
		f.JPEGQuality, err = parseInt(key, value, 1, 100)
	}
	return err
}

func setExternalField(x *External, key, value string) error {
	var err error
	switch key {
	case "upscale_command":
		x.UpscaleCommand = value
	case "style_command":
		x.StyleCommand = value
	case "anomaly_command":
		x.AnomalyCommand = value
	case "workers":
		x.Workers, err = parseInt(key, value, 1, 64)
	}
	return err
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := parseBool(key, value)
	if err != nil {
		return err
	}
	switch key {
	case "save":
		n.Save = b
	case "filter":
		n.Filter = b
	case "task":
		n.Task = b
	}
	return nil
}

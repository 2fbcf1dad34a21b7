package main

import (
	"bytes"
	"embed"
	"flag"
	"fmt"
	"os"
	"sync"
	"text/template"

	"github.com/golang/glog"
)

//go:embed templates/*.txt
var helpFS embed.FS

var (
	helpOnce sync.Once
	helpTmpl *template.Template
)

func parseHelpTemplates() {
	helpTmpl = template.Must(template.New("").Funcs(map[string]any{
		"flags": func(fs *flag.FlagSet) []flagInfo {
			result := []flagInfo{}
			if fs == nil {
				return result
			}
			fs.VisitAll(func(f *flag.Flag) {
				result = append(result, flagInfo{f.Name, f.DefValue, f.Usage})
			})
			return result
		},
	}).ParseFS(helpFS, "templates/*.txt"))
}

type flagInfo struct {
	Name     string
	DefValue string
	Usage    string
}

type HelpData interface {
	Program() string
	Template() string
	FlagSet() *flag.FlagSet
}

type UsageError struct {
	of HelpData
}

func (e *UsageError) Error() string {
	help, err := e.renderHelp()
	if err != nil {
		return err.Error()
	}
	return help
}

func (e *UsageError) renderHelp() (string, error) {
	helpOnce.Do(parseHelpTemplates)
	var buf bytes.Buffer
	if err := helpTmpl.ExecuteTemplate(&buf, e.of.Template(), e.of); err != nil {
		glog.Errorf("error rendering help template: %v", err)
		return "", err
	}
	return buf.String(), nil
}

// usageFunc adapts a command to flag.FlagSet.Usage.
func usageFunc(of HelpData) func() {
	return func() {
		fmt.Fprint(os.Stderr, (&UsageError{of: of}).Error())
	}
}

func (r *root) Template() string { return "root.txt" }

func (c *editCmd) Template() string { return "edit.txt" }

func (c *drawCmd) Template() string { return "draw.txt" }

func (c *filterCmd) Template() string { return "filter.txt" }

func (c *scriptCmd) Template() string { return "script.txt" }

func (c *hdrCmd) Template() string { return "hdr.txt" }

func (c *upscaleCmd) Template() string { return "upscale.txt" }

func (c *styleCmd) Template() string { return "style.txt" }

func (c *anomalyCmd) Template() string { return "anomaly.txt" }

func (c *captureCmd) Template() string { return "capture.txt" }

func (c *configCmd) Template() string { return "config.txt" }

func (c *interactiveCmd) Template() string { return "interactive.txt" }

func (v *versionCmd) Template() string { return "version.txt" }

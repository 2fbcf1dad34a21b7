// Package notify turns session events into desktop notifications.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/config"
	"github.com/example/easel/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave emits a notification when an image is persisted to disk.
	EventSave Event = "save"
	// EventFilter emits a notification when a filter replaces the canvas.
	EventFilter Event = "filter"
	// EventTask emits a notification when a background task finishes.
	EventTask Event = "task"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
	// Failure formats the body when the event carries an error.
	Failure string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Easel",
		Events: map[Event]EventPreference{
			EventSave:   {Template: "Saved %s", Failure: "Could not save %s"},
			EventFilter: {Template: "Applied %s", Failure: "%s failed"},
			EventTask:   {Template: "%s finished", Failure: "%s failed"},
		},
	}
}

// LoadPreferences reads overrides from environment variables.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("EASEL_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	apply := func(key string, event Event) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			eventPrefs := prefs.Events[event]
			eventPrefs.Template = v
			prefs.Events[event] = eventPrefs
		}
	}
	apply("EASEL_NOTIFY_SAVE_TEXT", EventSave)
	apply("EASEL_NOTIFY_FILTER_TEXT", EventFilter)
	apply("EASEL_NOTIFY_TASK_TEXT", EventTask)
	return prefs
}

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	// send is swapped out in tests.
	send func(title, body string, opts platform.Options) error
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), send: platform.Notify}
}

// FromConfig builds a notifier with the events enabled in [notify].
func FromConfig(cfg config.Notify) *Notifier {
	n := New(LoadPreferences())
	n.Enable(EventSave, cfg.Save)
	n.Enable(EventFilter, cfg.Filter)
	n.Enable(EventTask, cfg.Task)
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Handle is suitable as a session's OnEvent callback.
func (n *Notifier) Handle(e canvas.Event) {
	switch e.Kind {
	case canvas.EventSave:
		n.Save(e.Detail, e.Err)
	case canvas.EventFilter:
		n.dispatch(EventFilter, e.Detail, e.Err, platform.Options{})
	case canvas.EventTask:
		var img image.Image
		if e.Image != nil && e.Err == nil {
			img = e.Image.RGBA()
		}
		n.Task(e.Detail, img, e.Err)
	}
}

// Save sends a save notification including the written filename when available.
func (n *Notifier) Save(path string, err error) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil && err == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventSave, detail, err, opts)
}

// Task sends a task notification with an optional image preview.
func (n *Notifier) Task(kind string, img image.Image, err error) {
	if !n.enabledFor(EventTask) {
		return
	}
	opts := platform.Options{}
	if img != nil {
		if path, cleanup, perr := createPreview(img); perr != nil {
			glog.Warningf("notification preview: %v", perr)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventTask, kind, err, opts)
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	if n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, err error, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	body := n.body(event, detail, err)
	if body == "" {
		return
	}
	if opts.AppName == "" {
		opts.AppName = n.prefs.Title
	}
	if err != nil {
		opts.Urgent = true
	}
	if sendErr := n.send(n.prefs.Title, body, opts); sendErr != nil {
		glog.Warningf("notification %s: %v", event, sendErr)
	}
}

func (n *Notifier) body(event Event, detail string, err error) string {
	pref, ok := n.prefs.Events[event]
	if !ok {
		return ""
	}
	template := pref.Template
	if err != nil {
		template = pref.Failure
	}
	template = strings.TrimSpace(template)
	if template == "" {
		return ""
	}
	body := fmt.Sprintf(template, strings.TrimSpace(detail))
	if err != nil {
		body += ": " + err.Error()
	}
	return strings.TrimSpace(body)
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "easel-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			glog.Warningf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}

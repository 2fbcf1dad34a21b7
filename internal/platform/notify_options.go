// Package platform delivers desktop notifications through whatever the host
// operating system provides.
package platform

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender; empty uses DefaultAppName.
	AppName string
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Urgent asks the notification center to keep the message visible.
	Urgent bool
}

// DefaultAppName is reported when Options.AppName is empty.
const DefaultAppName = "Easel"

func (o Options) appName() string {
	if o.AppName == "" {
		return DefaultAppName
	}
	return o.AppName
}

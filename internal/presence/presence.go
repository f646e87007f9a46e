// Package presence publishes status lines, either to the Discord client as a
// rich presence activity or to a terminal.
package presence

import (
	"context"
	"fmt"
)

// Status is one presence update. Text is the rendered page.
type Status struct {
	Text string
}

// Sink is anything a Status can be published to.
type Sink interface {
	Publish(ctx context.Context, s Status) error
	Close() error
}

// Asset keys uploaded to the Discord application.
const (
	LargeImage  = "system_monitor_logo"
	DefaultIcon = "system_icon"
)

// IconFor returns the small image key for a GOOS value.
func IconFor(goos string) string {
	switch goos {
	case "windows":
		return "windows_icon"
	case "darwin":
		return "macos_icon"
	case "linux":
		return "linux_icon"
	}
	return DefaultIcon
}

// ConnectionHint is a short suggestion shown when the Discord client cannot
// be reached on the given GOOS.
func ConnectionHint(goos string) string {
	switch goos {
	case "linux":
		return "Make sure Discord is running and try: export DISPLAY=:0"
	case "darwin":
		return "Make sure Discord is running and has proper permissions"
	case "windows":
		return "Make sure Discord is running as the same user"
	}
	return "Make sure Discord is running"
}

// State is the connection state of a Publisher.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

package presence

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/ui"
)

// Console prints each Status as a line on a terminal. It is used when no
// Discord application is configured.
type Console struct {
	w     io.Writer
	clock func() time.Time

	timeStyle lipgloss.Style
	iconStyle lipgloss.Style
	textStyle lipgloss.Style

	mu     sync.Mutex
	closed bool
}

// NewConsole writes to w, without colors when noColor is set or w is not a
// terminal.
func NewConsole(w io.Writer, noColor bool) *Console {
	r := ui.NewRenderer(w, noColor)
	return &Console{
		w:         w,
		clock:     time.Now,
		timeStyle: r.NewStyle().Foreground(ui.ColorMuted),
		iconStyle: r.NewStyle().Foreground(ui.ColorInfo),
		textStyle: r.NewStyle().Foreground(ui.ColorPrimary).Bold(true),
	}
}

// Publish writes one line for s.
func (c *Console) Publish(_ context.Context, s Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New(errors.ErrConnection, "Console publisher is closed", "")
	}

	_, err := fmt.Fprintf(c.w, "%s %s %s\n",
		c.timeStyle.Render(c.clock().Format("15:04:05")),
		c.iconStyle.Render(ui.SymbolComplete),
		c.textStyle.Render(s.Text))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConnection, "Failed to write status line", "")
	}
	return nil
}

// Close stops further output.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

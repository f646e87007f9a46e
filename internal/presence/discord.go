package presence

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/logger"
	"github.com/rileyhilliard/sysrpc/pkg/discordrpc"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultMinBackoff     = 5 * time.Second
	DefaultMaxBackoff     = 2 * time.Minute
)

// Session is an established connection to the Discord client.
type Session interface {
	SetActivity(ctx context.Context, pid int, activity *discordrpc.Activity) error
	ClearActivity(ctx context.Context, pid int) error
	Close() error
}

// userSession is implemented by sessions that know which account they
// talk to.
type userSession interface {
	User() discordrpc.User
}

// Dialer opens a Session for an application client id.
type Dialer func(ctx context.Context, clientID string) (Session, error)

// DialDiscord is the Dialer used outside of tests.
func DialDiscord(ctx context.Context, clientID string) (Session, error) {
	conn, err := discordrpc.Dial(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Options configures a Publisher.
type Options struct {
	ConnectTimeout time.Duration
	MinBackoff     time.Duration
	MaxBackoff     time.Duration

	Dialer Dialer
	Clock  func() time.Time
	Logger logger.Logger

	// GOOS selects the default icon, display name and connection hint.
	GOOS string
	// OSName is the display name used in the activity texts.
	OSName string
	PID    int
	// Start is shown by Discord as elapsed time.
	Start time.Time
}

func defaultOptions() *Options {
	return &Options{
		ConnectTimeout: DefaultConnectTimeout,
		MinBackoff:     DefaultMinBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Dialer:         DialDiscord,
		Clock:          time.Now,
		Logger:         logger.New("presence"),
		GOOS:           runtime.GOOS,
		PID:            os.Getpid(),
		Start:          time.Now(),
	}
}

type Option func(*Options)

// WithConnectTimeout bounds each connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.ConnectTimeout = d
	}
}

// WithBackoff sets the reconnect delay after the first failed connect and
// the cap it doubles up to.
func WithBackoff(minDelay, maxDelay time.Duration) Option {
	return func(opts *Options) {
		opts.MinBackoff = minDelay
		opts.MaxBackoff = maxDelay
	}
}

func WithDialer(d Dialer) Option {
	return func(opts *Options) {
		opts.Dialer = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = now
	}
}

func WithLogger(l logger.Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// WithPlatform overrides the GOOS and display name used in the activity.
func WithPlatform(goos, osName string) Option {
	return func(opts *Options) {
		opts.GOOS = goos
		opts.OSName = osName
	}
}

// WithProcess sets the pid the activity is attributed to and its start time.
func WithProcess(pid int, start time.Time) Option {
	return func(opts *Options) {
		opts.PID = pid
		opts.Start = start
	}
}

// Publisher keeps a Discord session alive and pushes activities to it. A
// dropped session is re-established transparently on the next Publish; after
// a failed connect, reconnects are deferred with exponential backoff.
type Publisher struct {
	clientID string
	opts     *Options

	mu       sync.Mutex
	state    State
	session  Session
	backoff  time.Duration
	retryAt  time.Time
	failures int
}

// NewPublisher creates a disconnected Publisher for clientID.
func NewPublisher(clientID string, opts ...Option) *Publisher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.OSName == "" {
		o.OSName = o.GOOS
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.MaxBackoff < o.MinBackoff {
		o.MaxBackoff = o.MinBackoff
	}

	return &Publisher{
		clientID: clientID,
		opts:     o,
		state:    Disconnected,
	}
}

// State returns the current connection state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Connect establishes a session if there is none. It ignores any pending
// backoff.
func (p *Publisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Closed:
		return errClosed()
	case Connected:
		return nil
	}
	return p.connectLocked(ctx)
}

// Publish shows s as the current activity. If the session is gone it is
// re-established first, unless a reconnect is still being backed off. A
// failed update on a live session gets one reconnect and one resend.
func (p *Publisher) Publish(ctx context.Context, s Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Closed {
		return errClosed()
	}

	if p.state != Connected {
		if wait := p.retryAt.Sub(p.opts.Clock()); wait > 0 {
			return errors.New(errors.ErrConnection,
				fmt.Sprintf("Discord reconnect deferred for %s", wait.Round(time.Second)),
				ConnectionHint(p.opts.GOOS))
		}
		if err := p.connectLocked(ctx); err != nil {
			return err
		}
	}

	activity := p.activity(s)
	err := p.session.SetActivity(ctx, p.opts.PID, activity)
	if err == nil {
		return nil
	}

	p.opts.Logger.Warn("Presence update failed, reconnecting: %v", err)
	p.dropLocked()
	if err := p.connectLocked(ctx); err != nil {
		return err
	}

	if err := p.session.SetActivity(ctx, p.opts.PID, activity); err != nil {
		p.dropLocked()
		return errors.WrapWithCode(err, errors.ErrConnection,
			"Failed to update Discord presence",
			"The session was re-established but the update still failed")
	}
	return nil
}

// Close ends the session. The Publisher cannot be used afterwards.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Closed {
		return nil
	}
	p.state = Closed

	if p.session == nil {
		return nil
	}

	// Clear first so the status disappears now rather than whenever Discord
	// notices the closed pipe.
	cctx, cancel := context.WithTimeout(context.Background(), p.opts.ConnectTimeout)
	if err := p.session.ClearActivity(cctx, p.opts.PID); err != nil {
		p.opts.Logger.Debug("Failed to clear presence: %v", err)
	}
	cancel()

	err := p.session.Close()
	p.session = nil
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConnection, "Failed to close Discord connection", "")
	}
	p.opts.Logger.Info("Discord RPC connection closed")
	return nil
}

func (p *Publisher) connectLocked(ctx context.Context) error {
	p.state = Connecting

	cctx, cancel := context.WithTimeout(ctx, p.opts.ConnectTimeout)
	defer cancel()

	session, err := p.opts.Dialer(cctx, p.clientID)
	if err != nil {
		p.state = Disconnected
		p.failures++
		p.deferRetry()

		hint := ConnectionHint(p.opts.GOOS)
		if p.failures == 1 {
			p.opts.Logger.Warn("Failed to connect to Discord RPC on %s: %v", p.opts.OSName, err)
			p.opts.Logger.Info("%s", hint)
		} else {
			p.opts.Logger.Debug("Discord still unreachable (attempt %d, next in %s): %v", p.failures, p.backoff, err)
		}
		return errors.WrapWithCode(err, errors.ErrConnection, "Failed to connect to Discord RPC", hint)
	}

	p.session = session
	p.state = Connected
	p.backoff = 0
	p.retryAt = time.Time{}
	p.failures = 0
	p.opts.Logger.Info("Discord RPC connected successfully on %s", p.opts.OSName)
	if us, ok := session.(userSession); ok && us.User().Username != "" {
		p.opts.Logger.Debug("Discord user: %s", us.User().Username)
	}
	return nil
}

func (p *Publisher) dropLocked() {
	if p.session != nil {
		_ = p.session.Close()
		p.session = nil
	}
	p.state = Disconnected
}

func (p *Publisher) deferRetry() {
	switch {
	case p.backoff == 0:
		p.backoff = p.opts.MinBackoff
	case p.backoff < p.opts.MaxBackoff:
		p.backoff *= 2
	}
	if p.backoff > p.opts.MaxBackoff {
		p.backoff = p.opts.MaxBackoff
	}
	p.retryAt = p.opts.Clock().Add(p.backoff)
}

func (p *Publisher) activity(s Status) *discordrpc.Activity {
	return &discordrpc.Activity{
		Details: s.Text,
		Timestamps: &discordrpc.Timestamps{
			Start: p.opts.Start.Unix(),
		},
		Assets: &discordrpc.Assets{
			LargeImage: LargeImage,
			LargeText:  "System Performance Monitor - " + p.opts.OSName,
			SmallImage: IconFor(p.opts.GOOS),
			SmallText:  fmt.Sprintf("Monitoring %s System...", p.opts.OSName),
		},
	}
}

func errClosed() error {
	return errors.New(errors.ErrConnection, "Presence publisher is closed", "")
}

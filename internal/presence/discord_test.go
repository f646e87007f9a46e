package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sysrpcerrors "github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/logger"
	"github.com/rileyhilliard/sysrpc/pkg/discordrpc"
)

type fakeSession struct {
	activities []*discordrpc.Activity
	pids       []int
	failures   int // SetActivity fails this many more times
	closed     bool
	cleared    []int
	clearErr   error
	user       string
}

func (s *fakeSession) SetActivity(_ context.Context, pid int, a *discordrpc.Activity) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("broken pipe")
	}
	s.pids = append(s.pids, pid)
	s.activities = append(s.activities, a)
	return nil
}

func (s *fakeSession) ClearActivity(_ context.Context, pid int) error {
	if s.closed {
		return errors.New("cleared after close")
	}
	s.cleared = append(s.cleared, pid)
	return s.clearErr
}

func (s *fakeSession) User() discordrpc.User {
	return discordrpc.User{Username: s.user}
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeDialer hands out sessions in order; a nil entry fails the dial.
type fakeDialer struct {
	sessions []*fakeSession
	dials    int
	clientID string
	timeout  bool
}

func (d *fakeDialer) dial(ctx context.Context, clientID string) (Session, error) {
	d.clientID = clientID
	_, d.timeout = ctx.Deadline()
	if d.dials >= len(d.sessions) {
		d.dials++
		return nil, discordrpc.ErrNotRunning
	}
	s := d.sessions[d.dials]
	d.dials++
	if s == nil {
		return nil, discordrpc.ErrNotRunning
	}
	return s, nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestPublisher(d *fakeDialer, clock *fakeClock, log logger.Logger) *Publisher {
	return NewPublisher("1380200369144987760",
		WithDialer(d.dial),
		WithClock(clock.Now),
		WithLogger(log),
		WithPlatform("linux", "Linux"),
		WithProcess(4242, epoch),
	)
}

func TestPublisher_ConnectAndPublish(t *testing.T) {
	sess := &fakeSession{}
	d := &fakeDialer{sessions: []*fakeSession{sess}}
	p := newTestPublisher(d, &fakeClock{now: epoch}, logger.Noop())

	assert.Equal(t, Disconnected, p.State())
	require.NoError(t, p.Connect(context.Background()))
	assert.Equal(t, Connected, p.State())
	assert.Equal(t, "1380200369144987760", d.clientID)
	assert.True(t, d.timeout, "dial must be bounded by the connect timeout")

	require.NoError(t, p.Publish(context.Background(), Status{Text: "CPU: 12.3% of 8 cores"}))
	require.Len(t, sess.activities, 1)
	assert.Equal(t, []int{4242}, sess.pids)

	a := sess.activities[0]
	assert.Equal(t, "CPU: 12.3% of 8 cores", a.Details)
	assert.Equal(t, epoch.Unix(), a.Timestamps.Start)
	assert.Equal(t, LargeImage, a.Assets.LargeImage)
	assert.Equal(t, "System Performance Monitor - Linux", a.Assets.LargeText)
	assert.Equal(t, "linux_icon", a.Assets.SmallImage)
	assert.Equal(t, "Monitoring Linux System...", a.Assets.SmallText)

	// Connect on a live session is a no-op.
	require.NoError(t, p.Connect(context.Background()))
	assert.Equal(t, 1, d.dials)
}

func TestPublisher_PublishConnectsLazily(t *testing.T) {
	sess := &fakeSession{}
	d := &fakeDialer{sessions: []*fakeSession{sess}}
	p := newTestPublisher(d, &fakeClock{now: epoch}, logger.Noop())

	require.NoError(t, p.Publish(context.Background(), Status{Text: "RAM"}))
	assert.Equal(t, Connected, p.State())
	assert.Equal(t, 1, d.dials)
}

func TestPublisher_RetriesOnceAfterDroppedSession(t *testing.T) {
	first := &fakeSession{failures: 1}
	second := &fakeSession{}
	d := &fakeDialer{sessions: []*fakeSession{first, second}}
	log := logger.NewBufferLogger()
	p := newTestPublisher(d, &fakeClock{now: epoch}, log)

	require.NoError(t, p.Connect(context.Background()))
	require.NoError(t, p.Publish(context.Background(), Status{Text: "Disk"}))

	assert.True(t, first.closed, "broken session is closed")
	assert.Empty(t, first.activities)
	require.Len(t, second.activities, 1)
	assert.Equal(t, "Disk", second.activities[0].Details)
	assert.Equal(t, 2, d.dials)
	assert.Equal(t, Connected, p.State())
	assert.True(t, log.HasLevel("warn"))
}

func TestPublisher_ResendFailsAfterReconnect(t *testing.T) {
	first := &fakeSession{failures: 1}
	second := &fakeSession{failures: 1}
	d := &fakeDialer{sessions: []*fakeSession{first, second}}
	p := newTestPublisher(d, &fakeClock{now: epoch}, logger.Noop())

	require.NoError(t, p.Connect(context.Background()))
	err := p.Publish(context.Background(), Status{Text: "Net"})
	require.Error(t, err)
	assert.True(t, sysrpcerrors.IsCode(err, sysrpcerrors.ErrConnection))
	assert.Equal(t, Disconnected, p.State())
	assert.Equal(t, 2, d.dials, "exactly one reconnect")
}

func TestPublisher_ReconnectFailsAfterDrop(t *testing.T) {
	first := &fakeSession{failures: 1}
	d := &fakeDialer{sessions: []*fakeSession{first, nil}}
	p := newTestPublisher(d, &fakeClock{now: epoch}, logger.Noop())

	require.NoError(t, p.Connect(context.Background()))
	err := p.Publish(context.Background(), Status{Text: "Net"})
	require.Error(t, err)
	assert.True(t, sysrpcerrors.IsCode(err, sysrpcerrors.ErrConnection))
	assert.True(t, errors.Is(err, discordrpc.ErrNotRunning))
	assert.Equal(t, Disconnected, p.State())
}

func TestPublisher_ConnectFailure(t *testing.T) {
	d := &fakeDialer{}
	log := logger.NewBufferLogger()
	p := newTestPublisher(d, &fakeClock{now: epoch}, log)

	err := p.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, Disconnected, p.State())

	var coded *sysrpcerrors.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, sysrpcerrors.ErrConnection, coded.Code)
	assert.Equal(t, ConnectionHint("linux"), coded.Suggestion)

	assert.Equal(t, 1, log.Count("warn"))
	assert.Contains(t, log.Messages[0].Message, "Failed to connect to Discord RPC on Linux")
}

func TestPublisher_BackoffDefersReconnect(t *testing.T) {
	sess := &fakeSession{}
	d := &fakeDialer{sessions: []*fakeSession{nil, nil, sess}}
	clock := &fakeClock{now: epoch}
	log := logger.NewBufferLogger()
	p := newTestPublisher(d, clock, log)
	ctx := context.Background()

	// First failure schedules a retry in 5s.
	require.Error(t, p.Publish(ctx, Status{Text: "a"}))
	assert.Equal(t, 1, d.dials)

	clock.Advance(4 * time.Second)
	err := p.Publish(ctx, Status{Text: "b"})
	require.Error(t, err)
	assert.True(t, sysrpcerrors.IsCode(err, sysrpcerrors.ErrConnection))
	assert.Contains(t, err.Error(), "deferred")
	assert.Equal(t, 1, d.dials, "no dial while backing off")

	// Second failure doubles the delay to 10s.
	clock.Advance(time.Second)
	require.Error(t, p.Publish(ctx, Status{Text: "c"}))
	assert.Equal(t, 2, d.dials)

	clock.Advance(9 * time.Second)
	require.Error(t, p.Publish(ctx, Status{Text: "d"}))
	assert.Equal(t, 2, d.dials)

	clock.Advance(time.Second)
	require.NoError(t, p.Publish(ctx, Status{Text: "e"}))
	assert.Equal(t, 3, d.dials)
	require.Len(t, sess.activities, 1)
	assert.Equal(t, "e", sess.activities[0].Details)

	// Only the first failure of a streak is a warning.
	assert.Equal(t, 1, log.Count("warn"))
}

func TestPublisher_BackoffIsCapped(t *testing.T) {
	clock := &fakeClock{now: epoch}
	p := NewPublisher("id",
		WithDialer((&fakeDialer{}).dial),
		WithClock(clock.Now),
		WithLogger(logger.Noop()),
		WithBackoff(time.Second, 3*time.Second),
	)

	var delays []time.Duration
	for i := 0; i < 4; i++ {
		require.Error(t, p.Connect(context.Background()))
		delays = append(delays, p.backoff)
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, delays)
}

func TestPublisher_BackoffResetsOnSuccess(t *testing.T) {
	sess := &fakeSession{}
	d := &fakeDialer{sessions: []*fakeSession{nil, sess}}
	clock := &fakeClock{now: epoch}
	p := newTestPublisher(d, clock, logger.Noop())

	require.Error(t, p.Connect(context.Background()))
	require.NoError(t, p.Connect(context.Background()), "Connect ignores backoff")
	assert.Zero(t, p.backoff)
	assert.True(t, p.retryAt.IsZero())
}

func TestPublisher_Close(t *testing.T) {
	sess := &fakeSession{}
	p := newTestPublisher(&fakeDialer{sessions: []*fakeSession{sess}}, &fakeClock{now: epoch}, logger.Noop())

	require.NoError(t, p.Connect(context.Background()))
	require.NoError(t, p.Close())
	assert.Equal(t, []int{4242}, sess.cleared, "presence is cleared before the session closes")
	assert.True(t, sess.closed)
	assert.Equal(t, Closed, p.State())

	require.NoError(t, p.Close(), "second close is a no-op")

	err := p.Publish(context.Background(), Status{Text: "x"})
	assert.True(t, sysrpcerrors.IsCode(err, sysrpcerrors.ErrConnection))
	assert.Error(t, p.Connect(context.Background()))
}

func TestPublisher_CloseWhenClearFails(t *testing.T) {
	sess := &fakeSession{clearErr: errors.New("broken pipe")}
	p := newTestPublisher(&fakeDialer{sessions: []*fakeSession{sess}}, &fakeClock{now: epoch}, logger.Noop())

	require.NoError(t, p.Connect(context.Background()))
	require.NoError(t, p.Close())
	assert.True(t, sess.closed, "session still closes")
}

func TestPublisher_LogsConnectedUser(t *testing.T) {
	sess := &fakeSession{user: "wumpus"}
	log := logger.NewBufferLogger()
	p := newTestPublisher(&fakeDialer{sessions: []*fakeSession{sess}}, &fakeClock{now: epoch}, log)

	require.NoError(t, p.Connect(context.Background()))
	require.True(t, log.HasLevel("debug"))
	assert.Contains(t, log.Messages[len(log.Messages)-1].Message, "wumpus")
}

func TestPublisher_CloseWithoutSession(t *testing.T) {
	p := newTestPublisher(&fakeDialer{}, &fakeClock{now: epoch}, logger.Noop())
	require.NoError(t, p.Close())
	assert.Equal(t, Closed, p.State())
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"windows", "windows_icon"},
		{"darwin", "macos_icon"},
		{"linux", "linux_icon"},
		{"freebsd", DefaultIcon},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.want, IconFor(tt.goos))
		})
	}
}

func TestConnectionHint(t *testing.T) {
	assert.Contains(t, ConnectionHint("linux"), "DISPLAY=:0")
	assert.Contains(t, ConnectionHint("darwin"), "permissions")
	assert.Contains(t, ConnectionHint("windows"), "same user")
	assert.Equal(t, "Make sure Discord is running", ConnectionHint("plan9"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "State(9)", State(9).String())
}

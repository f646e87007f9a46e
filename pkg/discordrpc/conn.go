// Package discordrpc is a minimal client for the Discord desktop client's
// local IPC channel, enough to set and clear a rich presence activity.
//
// The channel is a unix socket (or a named pipe on Windows) carrying frames
// of a little-endian opcode, a little-endian length and a JSON body. A
// session starts with a handshake naming the application's client id and is
// ready once the client dispatches READY.
package discordrpc

import (
	"context"
	"io"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by operations on a closed Conn.
	ErrClosed = errors.NewPlain("discord rpc connection closed")

	// ErrNotRunning is returned by Dial when no IPC endpoint accepts a
	// connection, usually because the Discord desktop client is not running.
	ErrNotRunning = errors.NewPlain("discord client not running")
)

// maxPipes is how many numbered IPC endpoints Discord may listen on.
const maxPipes = 10

// Conn is an IPC session with the Discord client. Calls are serialized; a
// Conn is safe for use by one goroutine at a time plus Close.
type Conn struct {
	rw   io.ReadWriteCloser
	mu   sync.Mutex
	user User

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to the first reachable Discord IPC endpoint and performs the
// handshake for clientID.
func Dial(ctx context.Context, clientID string) (*Conn, error) {
	rw, err := dialIPC(ctx)
	if err != nil {
		return nil, err
	}

	c := NewConn(rw)
	if err := c.Handshake(ctx, clientID); err != nil {
		_ = rw.Close()
		return nil, err
	}
	return c, nil
}

// NewConn wraps an established transport. Callers must call Handshake before
// any other method.
func NewConn(rw io.ReadWriteCloser) *Conn {
	return &Conn{
		rw:     rw,
		closed: make(chan struct{}),
	}
}

// User returns the account reported in the READY event.
func (c *Conn) User() User {
	return c.user
}

// Handshake identifies the application and waits for READY.
func (c *Conn) Handshake(ctx context.Context, clientID string) error {
	payload, err := json.Marshal(handshake{Version: protocolVersion, ClientID: clientID})
	if err != nil {
		return errors.WrapIf(err, "encode handshake")
	}

	return c.exchange(ctx, OpHandshake, payload, func(r response) (bool, error) {
		if r.Cmd != cmdDispatch || r.Evt != evtReady {
			if r.Evt == evtError {
				return true, decodeError(r.Data)
			}
			return false, nil
		}
		var rd readyData
		if len(r.Data) > 0 {
			_ = json.Unmarshal(r.Data, &rd)
		}
		c.user = rd.User
		return true, nil
	})
}

// SetActivity replaces the presence for the process pid. A nil activity
// clears it.
func (c *Conn) SetActivity(ctx context.Context, pid int, activity *Activity) error {
	nonce := uuid.NewString()
	payload, err := json.Marshal(command{
		Cmd:   cmdSetActivity,
		Args:  activityArgs{PID: pid, Activity: activity},
		Nonce: nonce,
	})
	if err != nil {
		return errors.WrapIf(err, "encode activity")
	}

	return c.exchange(ctx, OpFrame, payload, func(r response) (bool, error) {
		if r.Nonce != nonce {
			return false, nil
		}
		if r.Evt == evtError {
			return true, decodeError(r.Data)
		}
		return true, nil
	})
}

// ClearActivity removes the presence for the process pid.
func (c *Conn) ClearActivity(ctx context.Context, pid int) error {
	return c.SetActivity(ctx, pid, nil)
}

// Close sends a close frame and releases the transport.
func (c *Conn) Close() error {
	err := ErrClosed
	c.closeOnce.Do(func() {
		close(c.closed)
		// Best effort: the peer may already be gone.
		_ = WriteFrame(c.rw, OpClose, []byte("{}"))
		err = c.rw.Close()
	})
	return err
}

// exchange writes one frame and reads frames until accept reports a final
// answer. Pings are answered and unrelated frames skipped.
func (c *Conn) exchange(ctx context.Context, op Opcode, payload []byte, accept func(response) (bool, error)) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	stop := c.watch(ctx)
	defer func() {
		stop()
		if err != nil {
			if ctxErr := contextErr(ctx); ctxErr != nil {
				err = errors.WrapIf(ctxErr, err.Error())
			}
		}
	}()

	if err := WriteFrame(c.rw, op, payload); err != nil {
		return err
	}

	for {
		gotOp, body, err := ReadFrame(c.rw)
		if err != nil {
			return err
		}

		switch gotOp {
		case OpPing:
			if err := WriteFrame(c.rw, OpPong, body); err != nil {
				return err
			}
		case OpClose:
			return decodeError(body)
		case OpFrame:
			var r response
			if err := json.Unmarshal(body, &r); err != nil {
				return errors.WrapIf(err, "decode response")
			}
			if done, err := accept(r); done {
				return err
			}
		}
	}
}

// contextErr reports why ctx is done. The transport deadline and the context
// timer fire independently, so a passed deadline counts even before the
// context notices.
func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return nil
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// watch applies the context deadline to the transport and interrupts pending
// I/O when the context is cancelled. The returned func undoes the watch.
func (c *Conn) watch(ctx context.Context) func() {
	d, ok := c.rw.(deadliner)
	if !ok {
		return func() {}
	}

	deadline, _ := ctx.Deadline()
	_ = d.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		_ = d.SetDeadline(time.Now())
	})
	return func() {
		stop()
		_ = d.SetDeadline(time.Time{})
	}
}

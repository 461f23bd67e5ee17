package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// closeTimeout bounds how long releasing a connection may take.
const closeTimeout = 5 * time.Second

// Listener subscribes to one NOTIFY channel and forwards payloads.
type Listener struct {
	cfg       Config
	dial      DialFunc
	publisher Publisher
	logger    *slog.Logger

	state atomic.Int32

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Stats
	mu            sync.Mutex
	notifications int64
	dropped       int64
	connects      int64
	failures      int64
	lastErr       error

	// Overridable in tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a listener. It does nothing until Start is called.
func New(cfg Config, dial DialFunc, publisher Publisher, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Channel == "" {
		cfg.Channel = def.Channel
	}
	if cfg.KeepaliveInterval <= 0 {
		cfg.KeepaliveInterval = def.KeepaliveInterval
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay < cfg.ReconnectBaseDelay {
		cfg.ReconnectMaxDelay = cfg.ReconnectBaseDelay
	}
	l := &Listener{
		cfg:       cfg,
		dial:      dial,
		publisher: publisher,
		logger:    logger,
		sleep:     sleepCtx,
	}
	l.state.Store(int32(StateDisconnected))
	return l
}

// Start launches the listen loop in the background.
func (l *Listener) Start(ctx context.Context) error {
	l.ctx, l.cancel = context.WithCancel(ctx)

	l.wg.Add(1)
	go l.run()

	l.logger.Info("change listener started",
		"channel", l.cfg.Channel,
		"retry", l.cfg.Retry,
	)
	return nil
}

// Stop cancels the listen loop and waits for the connection to be released.
func (l *Listener) Stop(ctx context.Context) error {
	l.logger.Info("stopping change listener")

	if l.cancel != nil {
		l.cancel()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("change listener stopped")
		return nil
	case <-ctx.Done():
		l.logger.Warn("change listener stop timed out")
		return ctx.Err()
	}
}

// Done is closed once the listen loop has exited.
func (l *Listener) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	return done
}

// State returns the current connection state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

// Stats returns current statistics.
func (l *Listener) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Stats{
		State:         l.State(),
		Notifications: l.notifications,
		Dropped:       l.dropped,
		Connects:      l.connects,
		Failures:      l.failures,
	}
	if l.lastErr != nil {
		s.LastError = l.lastErr.Error()
	}
	return s
}

// run is the reconnect loop.
func (l *Listener) run() {
	defer l.wg.Done()
	defer l.setState(StateStopped)

	attempt := 0
	for {
		subscribed, err := l.session()
		if l.ctx.Err() != nil {
			return
		}

		l.recordFailure(err)
		if !l.cfg.Retry {
			l.logger.Error("change listener terminated", "channel", l.cfg.Channel, "error", err)
			return
		}

		if subscribed {
			attempt = 0
		}
		wait := l.backoff(attempt)
		attempt++

		l.logger.Error("change listener failed, reconnecting",
			"channel", l.cfg.Channel,
			"error", err,
			"attempt", attempt,
			"wait", wait,
		)

		if !l.sleep(l.ctx, wait) {
			return
		}
	}
}

// session connects, subscribes, and pumps notifications until an error.
// subscribed reports whether LISTEN succeeded before the failure.
func (l *Listener) session() (subscribed bool, err error) {
	l.setState(StateConnecting)

	conn, err := l.dial(l.ctx)
	if err != nil {
		l.setState(StateDisconnected)
		return false, fmt.Errorf("connect: %w", err)
	}
	defer l.release(conn)

	listenSQL := "LISTEN " + pgx.Identifier{l.cfg.Channel}.Sanitize()
	if _, err := conn.Exec(l.ctx, listenSQL); err != nil {
		return false, fmt.Errorf("listen %s: %w", l.cfg.Channel, err)
	}

	l.mu.Lock()
	l.connects++
	l.mu.Unlock()

	l.setState(StateSubscribed)
	l.logger.Info("listening for notifications", "channel", l.cfg.Channel)

	return true, l.pump(conn)
}

// pump waits for notifications, pinging the connection after each idle interval.
func (l *Listener) pump(conn Conn) error {
	for {
		waitCtx, cancel := context.WithTimeout(l.ctx, l.cfg.KeepaliveInterval)
		n, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return l.ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
				if err := conn.Ping(l.ctx); err != nil {
					return fmt.Errorf("keepalive ping: %w", err)
				}
				continue
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		l.forward(n.Payload)
	}
}

func (l *Listener) forward(payload string) {
	ok := l.publisher.Publish(payload)

	l.mu.Lock()
	l.notifications++
	if !ok {
		l.dropped++
	}
	l.mu.Unlock()
}

// release closes conn on a fresh context so cancellation still tears it down.
func (l *Listener) release(conn Conn) {
	l.setState(StateDisconnected)

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		l.logger.Debug("close listener connection", "error", err)
	}
}

// backoff returns min(base*2^attempt, max) plus up to Jitter of random delay.
func (l *Listener) backoff(attempt int) time.Duration {
	wait := l.cfg.ReconnectBaseDelay
	for i := 0; i < attempt && wait < l.cfg.ReconnectMaxDelay; i++ {
		wait *= 2
	}
	if wait > l.cfg.ReconnectMaxDelay {
		wait = l.cfg.ReconnectMaxDelay
	}
	if l.cfg.Jitter > 0 {
		wait += rand.N(l.cfg.Jitter)
	}
	return wait
}

func (l *Listener) recordFailure(err error) {
	l.mu.Lock()
	l.failures++
	l.lastErr = err
	l.mu.Unlock()
}

func (l *Listener) setState(s State) {
	l.state.Store(int32(s))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

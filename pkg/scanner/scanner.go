// Package scanner delivers decoded barcodes. Decoding itself belongs to the
// device; a Scanner only reports the codes it produces.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown drops a repeat of the same code read this soon after the
// previous accepted one.
const DefaultCooldown = time.Second

// ErrBusy is returned when a scanning session is already open.
var ErrBusy = errors.New("scanner: session already in progress")

// Event is one decoded barcode.
type Event struct {
	Code string
	At   time.Time
}

// Scanner opens a scanning session. The channel is closed when the session
// ends, either because ctx is done or the device has no more codes. A
// scanner can be opened again after its previous session ended.
type Scanner interface {
	Scan(ctx context.Context) (<-chan Event, error)
}

// LineScanner reads one code per line, the way keyboard-wedge USB scanners
// type them. Blank lines are skipped.
type LineScanner struct {
	r   io.Reader
	now func() time.Time

	once  sync.Once
	lines chan string
	err   error

	mu   sync.Mutex
	busy bool
}

// NewLineScanner creates a scanner over r.
func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{r: r, now: time.Now}
}

// pump reads r for the lifetime of the scanner so a blocked read never
// outlives more than one session.
func (s *LineScanner) pump() {
	s.lines = make(chan string)
	go func() {
		defer close(s.lines)
		sc := bufio.NewScanner(s.r)
		for sc.Scan() {
			code := strings.TrimSpace(sc.Text())
			if code == "" {
				continue
			}
			s.lines <- code
		}
		s.mu.Lock()
		s.err = sc.Err()
		s.mu.Unlock()
	}()
}

func (s *LineScanner) Scan(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true
	s.mu.Unlock()

	s.once.Do(s.pump)

	out := make(chan Event)
	go func() {
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case code, ok := <-s.lines:
				if !ok {
					return
				}
				select {
				case out <- Event{Code: code, At: s.now()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Err is the read error that ended the input, if any.
func (s *LineScanner) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

type cooldown struct {
	inner  Scanner
	window time.Duration
}

// WithCooldown wraps s so that a code equal to the previous accepted code,
// read within d of it, is dropped. Distinct codes always pass. A d of zero
// uses DefaultCooldown.
func WithCooldown(s Scanner, d time.Duration) Scanner {
	if d <= 0 {
		d = DefaultCooldown
	}
	return &cooldown{inner: s, window: d}
}

func (c *cooldown) Scan(ctx context.Context) (<-chan Event, error) {
	in, err := c.inner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		var last Event
		for ev := range in {
			if ev.Code == last.Code && ev.At.Sub(last.At) < c.window {
				continue
			}
			last = ev
			select {
			case out <- ev:
			case <-ctx.Done():
				// Let the inner session finish draining.
				for range in {
				}
				return
			}
		}
	}()
	return out, nil
}

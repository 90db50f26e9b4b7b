// Package capture correlates frame requests with responses from the
// rendering collaborator.
//
// The rendering process owns the camera; this package owns nothing but a
// single-slot request/response channel. A capture request signals the
// renderer, arms a timeout, and then exactly one of the correlated response
// or the timeout resolves the caller. A second request while one is pending
// is rejected as busy rather than silently displacing the first, and late
// or spurious submissions are no-ops.
package capture

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

var (
	// ErrBusy is returned when a capture request is already pending.
	ErrBusy = errors.New("capture busy")
	// ErrUnavailable is returned when no rendering collaborator is wired.
	ErrUnavailable = errors.New("capture unavailable")
)

// Frame is one captured camera image as carried inside a tool result.
type Frame struct {
	Data []byte
	MIME string
}

// Correlator is the single-outstanding-request frame bridge. request is the
// out-of-band signal to the rendering process; it carries no payload, and
// the response arrives later through Submit.
type Correlator struct {
	mu       sync.Mutex
	pending  chan *Frame
	last     *Frame
	request  func()
	timeout  time.Duration
	maxWidth int
}

// NewCorrelator creates a correlator. request may be nil when no renderer
// is attached, in which case Capture reports ErrUnavailable. Frames wider
// than maxWidth are downscaled before delivery; 0 disables scaling.
func NewCorrelator(request func(), timeout time.Duration, maxWidth int) *Correlator {
	return &Correlator{request: request, timeout: timeout, maxWidth: maxWidth}
}

// Capture signals the renderer and waits for the correlated frame. It
// returns (nil, nil) when the renderer answers with no frame or when the
// timeout elapses first: "no frame" is an answer, not an error.
func (c *Correlator) Capture(ctx context.Context) (*Frame, error) {
	c.mu.Lock()
	if c.request == nil {
		c.mu.Unlock()
		return nil, ErrUnavailable
	}
	if c.pending != nil {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	slot := make(chan *Frame, 1)
	c.pending = slot
	req := c.request
	c.mu.Unlock()

	req()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case f := <-slot:
		return f, nil
	case <-timer.C:
		c.release(slot)
		return nil, nil
	case <-ctx.Done():
		c.release(slot)
		return nil, ctx.Err()
	}
}

// Submit delivers the renderer's response. A nil data payload means the
// renderer had no frame to give. With no request pending, Submit is a
// no-op; the renderer can never crash the gateway by answering late or
// unprompted.
func (c *Correlator) Submit(data []byte, mime string) {
	c.mu.Lock()
	slot := c.pending
	c.pending = nil

	var f *Frame
	if data != nil {
		f = c.shrink(&Frame{Data: data, MIME: mime})
		c.last = f
	}
	c.mu.Unlock()

	if slot != nil {
		slot <- f
	}
}

// Last returns the most recently captured frame, or nil.
func (c *Correlator) Last() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// release clears the pending slot if it still holds ours. Submit may have
// raced us and already detached it; the buffered channel keeps that path
// from blocking, and the frame it delivered is simply dropped.
func (c *Correlator) release(slot chan *Frame) {
	c.mu.Lock()
	if c.pending == slot {
		c.pending = nil
	}
	c.mu.Unlock()
}

// shrink downscales frames wider than maxWidth and re-encodes them as JPEG.
// A frame that does not decode passes through untouched; the payload is
// opaque to everything but this optimization.
func (c *Correlator) shrink(f *Frame) *Frame {
	if c.maxWidth <= 0 {
		return f
	}
	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return f
	}
	if img.Bounds().Dx() <= c.maxWidth {
		return f
	}

	scaled := imaging.Resize(img, c.maxWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85}); err != nil {
		return f
	}
	return &Frame{Data: buf.Bytes(), MIME: "image/jpeg"}
}

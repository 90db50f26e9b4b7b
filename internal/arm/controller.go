package arm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/stylusarm/stylus-mcp/internal/eventlog"
)

const (
	// openCommand both opens and closes the port, distinguished by the
	// handle it is sent with: handle 0 opens, a live handle closes.
	openCommand = "0"
	// parkCommand returns the arm to origin with the pen raised.
	parkCommand = "X0Y0Z0"

	// penUpDepth is the Z value that raises the stylus clear of the screen.
	penUpDepth = 0

	// DefaultClickDepth is the pen-down Z value used when a caller does not
	// supply one.
	DefaultClickDepth = 12
	// MinClickDepth and MaxClickDepth bound the usable pen-down range.
	MinClickDepth = 1
	MaxClickDepth = 15
)

var (
	// ErrAlreadyConnected is returned by Connect when a connection exists.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrNotConnected is returned by Move and Click before a connection.
	ErrNotConnected = errors.New("not connected")
	// ErrOpenFailed is returned when the API answers the open command with
	// a handle of 0 or something that is not a handle at all.
	ErrOpenFailed = errors.New("failed to open port")
)

// Timing carries the delays the hardware's command protocol requires.
type Timing struct {
	// Settle is the wait after a successful open before the arm reliably
	// accepts motion commands.
	Settle time.Duration
	// InterCommand is the gap between the park and close commands during
	// disconnect.
	InterCommand time.Duration
	// ClickHold is the pen-down dwell before pen-up.
	ClickHold time.Duration
}

// DefaultTiming returns the delays the hardware was calibrated with.
func DefaultTiming() Timing {
	return Timing{
		Settle:       3 * time.Second,
		InterCommand: 500 * time.Millisecond,
		ClickHold:    250 * time.Millisecond,
	}
}

// MoveResult reports a completed move.
type MoveResult struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Controller is the device-control state machine. Its mutex is held across
// each complete operation, including the mandatory delays, so hardware
// commands from concurrent protocol sessions never interleave mid-sequence.
//
// Coordinates are absolute logical millimeters. The hardware's Y axis grows
// away from the screen's "up" direction; callers layering a directional API
// on top must invert Y themselves, this controller passes coordinates
// through unchanged.
type Controller struct {
	mu     sync.Mutex
	state  *State
	client *Client
	timing Timing
	events *eventlog.Log
}

// NewController wires the shared arm state to the command client.
func NewController(state *State, client *Client, timing Timing, events *eventlog.Log) *Controller {
	return &Controller{state: state, client: client, timing: timing, events: events}
}

// Snapshot returns a consistent copy of the arm state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.snapshot()
}

// Connect opens the serial port through the API and waits out the settle
// delay. A non-empty address or port overrides the configured target; both
// are only settable here, while disconnected. Connect on a connected arm
// fails without touching any state.
func (c *Controller) Connect(ctx context.Context, address, port string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.connected {
		return ErrAlreadyConnected
	}
	if address != "" {
		c.state.address = address
	}
	if port != "" {
		c.state.port = port
	}

	body, err := c.client.Command(ctx, c.state.address, c.state.port, 0, openCommand)
	if err != nil {
		c.events.Error("arm_connect", err.Error())
		return err
	}

	handle, err := ParseHandle(body)
	if err != nil || handle <= 0 {
		c.events.Error("arm_connect", fmt.Sprintf("open returned %q", body))
		return ErrOpenFailed
	}

	c.state.connected = true
	c.state.handle = handle
	c.state.pos = Position{}
	c.events.Info("arm_connect", fmt.Sprintf("port %s open, handle %d", c.state.port, handle))

	// The arm drops motion commands issued immediately after open; the
	// settle delay is part of the connect contract.
	time.Sleep(c.timing.Settle)
	return nil
}

// Disconnect parks the arm at origin, closes the port, and resets state.
// It is idempotent, and the reset is unconditional: hardware errors during
// park or close are reported but never leave a stale handle behind.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.connected {
		c.state.reset()
		return nil
	}

	handle := c.state.handle
	_, parkErr := c.client.Command(ctx, c.state.address, c.state.port, handle, parkCommand)
	time.Sleep(c.timing.InterCommand)
	_, closeErr := c.client.Command(ctx, c.state.address, c.state.port, handle, openCommand)

	c.state.reset()

	if parkErr != nil || closeErr != nil {
		err := errors.Join(parkErr, closeErr)
		c.events.Error("arm_disconnect", err.Error())
		return fmt.Errorf("disconnect completed with errors: %w", err)
	}
	c.events.Info("arm_disconnect", "port closed")
	return nil
}

// Move sends a combined X/Y position command. Inputs are rounded to the
// nearest millimeter and clamped to zero; on transport failure the tracked
// position is left untouched.
func (c *Controller) Move(ctx context.Context, x, y float64) (MoveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.connected || c.state.handle <= 0 {
		return MoveResult{}, ErrNotConnected
	}

	xi := clampCoord(x)
	yi := clampCoord(y)

	cmd := fmt.Sprintf("X%dY%d", xi, yi)
	if _, err := c.client.Command(ctx, c.state.address, c.state.port, c.state.handle, cmd); err != nil {
		c.events.Error("arm_move", err.Error())
		return MoveResult{}, err
	}

	res := MoveResult{From: c.state.pos, To: Position{X: xi, Y: yi}}
	c.state.pos = res.To
	c.events.Info("arm_move", cmd)
	return res, nil
}

// Click lowers the pen to depth, holds, and raises it. The pen-up command
// is attempted even when pen-down fails, so the stylus is never left resting
// on the screen. Position is unaffected.
func (c *Controller) Click(ctx context.Context, depth int) error {
	if depth == 0 {
		depth = DefaultClickDepth
	}
	if depth < MinClickDepth || depth > MaxClickDepth {
		return fmt.Errorf("depth %d out of range %d..%d", depth, MinClickDepth, MaxClickDepth)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.connected || c.state.handle <= 0 {
		return ErrNotConnected
	}

	_, downErr := c.client.Command(ctx, c.state.address, c.state.port, c.state.handle, fmt.Sprintf("Z%d", depth))
	time.Sleep(c.timing.ClickHold)
	_, upErr := c.client.Command(ctx, c.state.address, c.state.port, c.state.handle, fmt.Sprintf("Z%d", penUpDepth))

	if downErr != nil {
		c.events.Error("arm_click", downErr.Error())
		return fmt.Errorf("pen down: %w", downErr)
	}
	if upErr != nil {
		c.events.Error("arm_click", upErr.Error())
		return fmt.Errorf("pen up: %w", upErr)
	}

	c.state.depth = depth
	c.events.Info("arm_click", fmt.Sprintf("Z%d", depth))
	return nil
}

func clampCoord(v float64) int {
	i := int(math.Round(v))
	if i < 0 {
		return 0
	}
	return i
}

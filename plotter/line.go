package plotter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"orderclient/types"

	"github.com/sirupsen/logrus"
)

// LineConfig tunes the simulated line
type LineConfig struct {
	Paper       int
	MaxPathUses int
	StepDelay   time.Duration
}

// DefaultLineConfig returns the settings plotterd starts with
func DefaultLineConfig() LineConfig {
	return LineConfig{Paper: 100, MaxPathUses: 4, StepDelay: 300 * time.Millisecond}
}

// Cell is one conveyor with plotters docked on its North and South sides
type Cell struct {
	North *Plotter
	South *Plotter

	conveyor *Conveyor
}

// Emitter receives the status events of an order
type Emitter func(ev types.StatusEvent) error

// Stats is a point-in-time view of the line's stacks
type Stats struct {
	PaperLeft  int `json:"paper_left"`
	Finished   int `json:"finished"`
	OrdersRun  int `json:"orders_run"`
	OrdersFail int `json:"orders_failed"`
}

// Line moves sheets from the input stack through a chain of cells to the
// output stack. It is one physical resource, so orders run one at a time.
type Line struct {
	cfg    LineConfig
	logger logrus.FieldLogger

	mu         sync.Mutex
	input      *InputStack
	output     *OutputStack
	cells      []*Cell
	ordersRun  int
	ordersFail int
}

// NewLine builds a line from cells, West to East
func NewLine(cfg LineConfig, logger logrus.FieldLogger, cells ...*Cell) *Line {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	for i, c := range cells {
		c.conveyor = NewConveyor(fmt.Sprintf("Conveyor %d", i))
	}
	return &Line{
		cfg:    cfg,
		logger: logger,
		input:  NewInputStack("Input", cfg.Paper),
		output: NewOutputStack("Output"),
		cells:  cells,
	}
}

// NewDefaultLine builds the two-cell line with one plotter per colour
func NewDefaultLine(cfg LineConfig, logger logrus.FieldLogger) *Line {
	return NewLine(cfg, logger,
		&Cell{North: NewPlotter("Red", types.DrawRed), South: NewPlotter("Green", types.DrawGreen)},
		&Cell{North: NewPlotter("Blue", types.DrawBlue), South: NewPlotter("Yellow", types.DrawYellow)},
	)
}

// Stats reports stack counts and order totals
func (l *Line) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		PaperLeft:  l.input.Count(),
		Finished:   l.output.Count(),
		OrdersRun:  l.ordersRun,
		OrdersFail: l.ordersFail,
	}
}

// Refill puts n more blank sheets on the input stack
func (l *Line) Refill(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.input.Refill(n)
}

// stepError ends an order with a failure status
type stepError struct {
	kind types.StatusKind
	err  error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("%s: %v", e.kind, e.err)
}

func fail(kind types.StatusKind, err error) error {
	return &stepError{kind: kind, err: err}
}

// run is the state of one order on the line
type run struct {
	line *Line
	ctx  context.Context
	// pos is the sheet's cell; -1 is the input stack
	pos  int
	uses map[int]int
}

// Run plots req and reports progress through emit. Failures are reported as
// a terminal event and return nil; the returned error is the context error
// or an emit failure.
func (l *Line) Run(ctx context.Context, req types.OrderRequest, emit Emitter) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	logger := l.logger.WithFields(logrus.Fields{"order_id": req.ID, "customer": req.Customer})
	l.ordersRun++

	err := l.run(ctx, req, emit, logger)

	var se *stepError
	if errors.As(err, &se) {
		l.ordersFail++
		logger.WithError(se.err).WithField("status", se.kind.String()).Warn("order failed on the line")
		l.clear()
		return emit(types.StatusEvent{State: se.kind})
	}
	if err != nil {
		l.ordersFail++
		l.clear()
		return err
	}
	logger.Info("order plotted")
	return nil
}

func (l *Line) run(ctx context.Context, req types.OrderRequest, emit Emitter, logger logrus.FieldLogger) error {
	if len(l.cells) == 0 {
		return fail(types.StatusNoPathFound, errors.New("line has no cells"))
	}
	r := &run{line: l, ctx: ctx, pos: -1, uses: make(map[int]int)}

	if err := emit(types.StatusEvent{State: types.StatusStarted}); err != nil {
		return err
	}
	if err := r.feed(); err != nil {
		return err
	}

	for _, fn := range req.Functions {
		if err := r.wait(); err != nil {
			return err
		}
		if err := emit(types.StatusEvent{State: types.StatusInProgress, NextFunction: fn}); err != nil {
			return err
		}

		cell, side, ok := l.find(fn)
		if !ok {
			return fail(types.StatusNoPathFound, fmt.Errorf("no plotter docked for %s", fn))
		}
		if err := r.moveTo(cell); err != nil {
			return err
		}
		if err := r.plot(side); err != nil {
			return err
		}
		logger.WithField("function", fn.String()).Debug("function plotted")
	}

	if err := r.wait(); err != nil {
		return err
	}
	if err := r.deliver(); err != nil {
		return err
	}
	return emit(types.StatusEvent{State: types.StatusDone})
}

// find returns the cell and side of the plotter for fn
func (l *Line) find(fn types.DrawFunction) (int, Orientation, bool) {
	for i, c := range l.cells {
		if c.North != nil && c.North.Function() == fn {
			return i, North, true
		}
		if c.South != nil && c.South.Function() == fn {
			return i, South, true
		}
	}
	return 0, North, false
}

// clear removes any sheet stranded on the line
func (l *Line) clear() {
	for _, c := range l.cells {
		_ = c.conveyor.Push()
		c.conveyor.TurnTo(East)
		if c.North != nil {
			_ = c.North.Push()
		}
		if c.South != nil {
			_ = c.South.Push()
		}
	}
}

// wait paces the line and aborts on cancellation
func (r *run) wait() error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if r.line.cfg.StepDelay <= 0 {
		return nil
	}
	t := time.NewTimer(r.line.cfg.StepDelay)
	defer t.Stop()
	select {
	case <-r.ctx.Done():
		return r.ctx.Err()
	case <-t.C:
		return nil
	}
}

// traverse counts one use of the link East of position from
func (r *run) traverse(from int) error {
	link := from + 1
	r.uses[link]++
	if limit := r.line.cfg.MaxPathUses; limit > 0 && r.uses[link] > limit {
		return fail(types.StatusPathInUseTooOften, fmt.Errorf("link %d used %d times", link, r.uses[link]))
	}
	return nil
}

func (r *run) feed() error {
	first := r.line.cells[0].conveyor
	if err := r.traverse(-1); err != nil {
		return err
	}
	if err := r.line.input.Push(); err != nil {
		return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", r.line.input.Name(), err))
	}
	first.TurnTo(West)
	if err := first.Pull(); err != nil {
		return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", first.Name(), err))
	}
	r.pos = 0
	return nil
}

// moveTo hands the sheet conveyor to conveyor until it reaches cell
func (r *run) moveTo(cell int) error {
	for r.pos != cell {
		step, facing := 1, East
		if cell < r.pos {
			step, facing = -1, West
		}
		from := r.line.cells[r.pos].conveyor
		to := r.line.cells[r.pos+step].conveyor

		link := r.pos
		if step < 0 {
			link = r.pos - 1
		}
		if err := r.traverse(link); err != nil {
			return err
		}

		from.TurnTo(facing)
		to.TurnTo(facing.Inverse())
		if err := from.Push(); err != nil {
			return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", from.Name(), err))
		}
		if err := to.Pull(); err != nil {
			return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", to.Name(), err))
		}
		r.pos += step

		if err := r.wait(); err != nil {
			return err
		}
	}
	return nil
}

// plot hands the sheet to the plotter on side and takes it back
func (r *run) plot(side Orientation) error {
	c := r.line.cells[r.pos]
	p := c.North
	if side == South {
		p = c.South
	}

	c.conveyor.TurnTo(side)
	if err := c.conveyor.Push(); err != nil {
		return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", c.conveyor.Name(), err))
	}
	if err := p.Pull(); err != nil {
		return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if err := p.Plot(); err != nil {
		return fail(types.StatusPlottingFailed, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if err := p.Push(); err != nil {
		return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if err := c.conveyor.Pull(); err != nil {
		return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", c.conveyor.Name(), err))
	}
	return nil
}

// deliver moves the sheet to the last cell and onto the output stack
func (r *run) deliver() error {
	if err := r.moveTo(len(r.line.cells) - 1); err != nil {
		return err
	}
	last := r.line.cells[r.pos].conveyor
	if err := r.traverse(r.pos); err != nil {
		return err
	}
	last.TurnTo(East)
	if err := last.Push(); err != nil {
		return fail(types.StatusTransportFailed, fmt.Errorf("%s: %w", last.Name(), err))
	}
	r.line.output.Pull()
	return nil
}

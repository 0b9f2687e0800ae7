package plotter

import (
	"errors"
	"fmt"

	"orderclient/types"
)

var (
	ErrEmpty    = errors.New("no sheet to hand over")
	ErrFull     = errors.New("already holding a sheet")
	ErrNoPaper  = errors.New("no paper in plotter")
	ErrOutOfInk = errors.New("plotter is out of ink")
)

// Orientation is the side of a conveyor facing its neighbour
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

func (o Orientation) String() string {
	switch o {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// Inverse returns the opposite side
func (o Orientation) Inverse() Orientation {
	switch o {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	default:
		return East
	}
}

// InputStack feeds blank sheets into the line
type InputStack struct {
	name  string
	count int
}

func NewInputStack(name string, count int) *InputStack {
	return &InputStack{name: name, count: count}
}

func (s *InputStack) Name() string { return s.name }
func (s *InputStack) Count() int   { return s.count }

// Push hands one sheet to the neighbouring conveyor
func (s *InputStack) Push() error {
	if s.count == 0 {
		return ErrEmpty
	}
	s.count--
	return nil
}

// Refill adds n sheets
func (s *InputStack) Refill(n int) {
	s.count += n
}

// OutputStack collects finished sheets
type OutputStack struct {
	name  string
	count int
}

func NewOutputStack(name string) *OutputStack {
	return &OutputStack{name: name}
}

func (s *OutputStack) Name() string { return s.name }
func (s *OutputStack) Count() int   { return s.count }

// Pull accepts a finished sheet
func (s *OutputStack) Pull() {
	s.count++
}

// Conveyor moves one sheet at a time towards the side it is turned to
type Conveyor struct {
	name        string
	orientation Orientation
	hasPaper    bool
}

// NewConveyor returns an empty conveyor facing East
func NewConveyor(name string) *Conveyor {
	return &Conveyor{name: name, orientation: East}
}

func (c *Conveyor) Name() string             { return c.name }
func (c *Conveyor) Orientation() Orientation { return c.orientation }
func (c *Conveyor) HasPaper() bool           { return c.hasPaper }

func (c *Conveyor) TurnTo(o Orientation) {
	c.orientation = o
}

func (c *Conveyor) Push() error {
	if !c.hasPaper {
		return ErrEmpty
	}
	c.hasPaper = false
	return nil
}

func (c *Conveyor) Pull() error {
	if c.hasPaper {
		return ErrFull
	}
	c.hasPaper = true
	return nil
}

// Plotter draws one function onto the sheet it holds
type Plotter struct {
	name     string
	function types.DrawFunction
	hasPaper bool

	// ink is the number of plots left; negative means unlimited
	ink int
}

// NewPlotter returns an empty plotter with unlimited ink
func NewPlotter(name string, fn types.DrawFunction) *Plotter {
	return &Plotter{name: name, function: fn, ink: -1}
}

// WithInk limits the plotter to n more plots
func (p *Plotter) WithInk(n int) *Plotter {
	p.ink = n
	return p
}

func (p *Plotter) Name() string                 { return p.name }
func (p *Plotter) Function() types.DrawFunction { return p.function }
func (p *Plotter) HasPaper() bool               { return p.hasPaper }

func (p *Plotter) Plot() error {
	if !p.hasPaper {
		return ErrNoPaper
	}
	if p.ink == 0 {
		return ErrOutOfInk
	}
	if p.ink > 0 {
		p.ink--
	}
	return nil
}

func (p *Plotter) Push() error {
	if !p.hasPaper {
		return ErrEmpty
	}
	p.hasPaper = false
	return nil
}

func (p *Plotter) Pull() error {
	if p.hasPaper {
		return ErrFull
	}
	p.hasPaper = true
	return nil
}

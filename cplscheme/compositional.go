package cplscheme

import "strings"

// Compositional sequences an ordered list of child schemes for more than
// two participants, advancing each in turn and marking a child onHold once
// it has converged rather than removing it from the list.
//
// Cycles among children are a configuration error and must be rejected
// before construction; this type trusts its caller already did so, since
// cycle detection depends on how the caller names participants.
type Compositional struct {
	Children []Scheme
	onHold   []bool

	activeBegin, activeEnd int
	lastAddedTime          float64
	state                  State
}

// NewCompositional builds a compositional scheme over children, in the
// order they should be considered for the active window.
func NewCompositional(children []Scheme) (*Compositional, error) {
	if len(children) == 0 {
		return nil, newErr(ConfigError, "Compositional", "requires at least one child scheme")
	}
	return &Compositional{Children: children, onHold: make([]bool, len(children)), state: Constructed}, nil
}

// advanceWindowFrom extends activeEnd forward from start, including a
// maximal run of implicit schemes: the first scheme is always included;
// any later scheme is included only while it's implicit, so the window
// stops at the first explicit scheme found after index start.
func (o *Compositional) advanceWindowFrom(start int) {
	if start >= len(o.Children) {
		o.activeEnd = start
		return
	}
	end := start
	for i := start; i < len(o.Children); i++ {
		if i > start && !o.Children[i].IsImplicit() {
			break
		}
		end = i + 1
	}
	o.activeEnd = end
}

// determineActiveSubsequent implements its "on subsequent calls"
// branch: drop leading converged explicit schemes, update onHold flags,
// and collapse/slide/wrap the window once every active implicit scheme has
// converged.
func (o *Compositional) determineActiveSubsequent() {
	for o.activeBegin < o.activeEnd {
		c := o.Children[o.activeBegin]
		if !c.IsImplicit() && !c.IsActionRequired(ActionWriteIterationCheckpoint) && !c.IsActionRequired(ActionReadIterationCheckpoint) {
			o.activeBegin++
			continue
		}
		break
	}

	allImplicitConverged := true
	for i := o.activeBegin; i < o.activeEnd; i++ {
		c := o.Children[i]
		if c.IsActionRequired(ActionReadIterationCheckpoint) {
			allImplicitConverged = false
		}
		o.onHold[i] = c.IsActionRequired(ActionWriteIterationCheckpoint) || !c.IsCouplingOngoing()
	}

	if !allImplicitConverged {
		return
	}
	for i := o.activeBegin; i < o.activeEnd; i++ {
		o.onHold[i] = false
	}
	if o.activeEnd >= len(o.Children) {
		o.activeBegin, o.activeEnd = 0, 0 // wrap around: new timestep
	} else {
		o.activeBegin = o.activeEnd // slide forward
	}
	o.advanceWindowFrom(o.activeBegin)
}

func (o *Compositional) Initialize(t0 float64, n0 int) error {
	if o.state != Constructed {
		return newErr(ConfigError, "Compositional", "Initialize called in state %s", o.state)
	}
	for _, c := range o.Children {
		if err := c.Initialize(t0, n0); err != nil {
			return err
		}
	}
	o.activeBegin, o.activeEnd = 0, 0
	o.advanceWindowFrom(0)
	o.state = Initialized
	return nil
}

func (o *Compositional) InitializeData() error {
	for i := o.activeBegin; i < o.activeEnd; i++ {
		if err := o.Children[i].InitializeData(); err != nil {
			return err
		}
	}
	return nil
}

func (o *Compositional) AddComputedTime(dt float64) error {
	o.lastAddedTime = dt
	for i := o.activeBegin; i < o.activeEnd; i++ {
		if o.onHold[i] {
			continue
		}
		if err := o.Children[i].AddComputedTime(dt); err != nil {
			return err
		}
	}
	return nil
}

// Advance runs its loop: advance every non-onHold active scheme,
// re-run determineActiveSubsequent, and if the window changed (more
// schemes to handle), feed lastAddedTime to the newly activated ones and
// repeat, all within this single call.
func (o *Compositional) Advance() error {
	for {
		oldBegin, oldEnd := o.activeBegin, o.activeEnd
		for i := oldBegin; i < oldEnd; i++ {
			if o.onHold[i] {
				continue
			}
			if err := o.Children[i].Advance(); err != nil {
				return err
			}
		}
		o.determineActiveSubsequent()
		if o.activeBegin == oldBegin && o.activeEnd == oldEnd {
			return nil
		}
		for i := o.activeBegin; i < o.activeEnd; i++ {
			if i >= oldBegin && i < oldEnd {
				continue // already had time added and was advanced this round
			}
			if err := o.Children[i].AddComputedTime(o.lastAddedTime); err != nil {
				return err
			}
		}
	}
}

func (o *Compositional) Finalize() error {
	o.state = Finalized
	for _, c := range o.Children {
		if err := c.Finalize(); err != nil {
			return err
		}
	}
	return nil
}

// Time is the minimum over active, non-onHold schemes.
func (o *Compositional) Time() float64 {
	min, any := 0.0, false
	for i := o.activeBegin; i < o.activeEnd; i++ {
		if o.onHold[i] {
			continue
		}
		t := o.Children[i].Time()
		if !any || t < min {
			min, any = t, true
		}
	}
	return min
}

func (o *Compositional) Timesteps() int {
	min, any := 0, false
	for i := o.activeBegin; i < o.activeEnd; i++ {
		if o.onHold[i] {
			continue
		}
		n := o.Children[i].Timesteps()
		if !any || n < min {
			min, any = n, true
		}
	}
	return min
}

// TimestepLength is the minimum over every child, active or not.
func (o *Compositional) TimestepLength() float64 {
	min, any := 0.0, false
	for _, c := range o.Children {
		l := c.TimestepLength()
		if !any || l < min {
			min, any = l, true
		}
	}
	return min
}

func (o *Compositional) ThisTimestepRemainder() float64 {
	min, any := 0.0, false
	for i := o.activeBegin; i < o.activeEnd; i++ {
		if o.onHold[i] {
			continue
		}
		r := o.Children[i].ThisTimestepRemainder()
		if !any || r < min {
			min, any = r, true
		}
	}
	return min
}

func (o *Compositional) ComputedTimestepPart() float64 {
	return o.TimestepLength() - o.ThisTimestepRemainder()
}

func (o *Compositional) NextTimestepMaxLength() float64 { return o.ThisTimestepRemainder() }

// IsCouplingOngoing is true if any child still has work to do.
func (o *Compositional) IsCouplingOngoing() bool {
	for _, c := range o.Children {
		if c.IsCouplingOngoing() {
			return true
		}
	}
	return false
}

// IsCouplingTimestepComplete is true only once every child reports it.
func (o *Compositional) IsCouplingTimestepComplete() bool {
	for _, c := range o.Children {
		if !c.IsCouplingTimestepComplete() {
			return false
		}
	}
	return true
}

func (o *Compositional) HasDataBeenExchanged() bool {
	for i := o.activeBegin; i < o.activeEnd; i++ {
		if !o.onHold[i] && o.Children[i].HasDataBeenExchanged() {
			return true
		}
	}
	return false
}

func (o *Compositional) WillDataBeExchanged(dtGuess float64) bool {
	for i := o.activeBegin; i < o.activeEnd; i++ {
		if !o.onHold[i] && o.Children[i].WillDataBeExchanged(dtGuess) {
			return true
		}
	}
	return false
}

func (o *Compositional) IsActionRequired(name string) bool {
	for i := o.activeBegin; i < o.activeEnd; i++ {
		if o.Children[i].IsActionRequired(name) {
			return true
		}
	}
	return false
}

func (o *Compositional) PerformedAction(name string) {
	for i := o.activeBegin; i < o.activeEnd; i++ {
		o.Children[i].PerformedAction(name)
	}
}

func (o *Compositional) RequireAction(name string) {
	for i := o.activeBegin; i < o.activeEnd; i++ {
		o.Children[i].RequireAction(name)
	}
}

func (o *Compositional) IsImplicit() bool {
	for _, c := range o.Children {
		if c.IsImplicit() {
			return true
		}
	}
	return false
}

// PrintCouplingState concatenates every child's line.
func (o *Compositional) PrintCouplingState() string {
	var lines []string
	for _, c := range o.Children {
		lines = append(lines, c.PrintCouplingState())
	}
	return strings.Join(lines, " | ")
}

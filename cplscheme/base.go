package cplscheme

import (
	"math"
	"strconv"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gocouple/acceleration"
	"github.com/cpmech/gocouple/couplingdata"
)

// BaseScheme carries the time bookkeeping, action flags, convergence
// measures and post-processing state shared by every concrete scheme.
// Concrete schemes embed it and add their own Initialize/Advance.
type BaseScheme struct {
	Name  string
	State State

	timestepLength  float64
	hasMaxTime      bool
	maxTime         float64
	hasMaxTimesteps bool
	maxTimesteps    int

	minIterations int
	maxIterations int

	time                 float64
	timesteps            int
	computedTimestepPart float64
	iteration            int
	timestepComplete     bool
	dataExchanged        bool

	actions map[string]bool

	Measures       []acceleration.ConvergenceMeasure
	PostProcessing acceleration.PostProcessing
	DataMap        acceleration.DataMap
	History        *History
}

// NewBaseScheme allocates a scheme in state Constructed. timestepLength must
// be positive.
func NewBaseScheme(name string, timestepLength float64) (*BaseScheme, error) {
	if timestepLength <= 0 {
		return nil, newErr(ConfigError, name, "timestep-length must be positive, got %g", timestepLength)
	}
	return &BaseScheme{
		Name:           name,
		State:          Constructed,
		timestepLength: timestepLength,
		actions:        map[string]bool{},
		History:        NewHistory(),
	}, nil
}

// SetMaxTime configures the max-time stopping criterion.
func (o *BaseScheme) SetMaxTime(t float64) { o.hasMaxTime, o.maxTime = true, t }

// SetMaxTimesteps configures the max-timesteps stopping criterion.
func (o *BaseScheme) SetMaxTimesteps(n int) { o.hasMaxTimesteps, o.maxTimesteps = true, n }

// SetIterationLimits configures the min/max sub-iteration bounds.
// A zero maxIterations means unlimited.
func (o *BaseScheme) SetIterationLimits(min, max int) { o.minIterations, o.maxIterations = min, max }

func (o *BaseScheme) Time() float64             { return o.time }
func (o *BaseScheme) Timesteps() int            { return o.timesteps }
func (o *BaseScheme) TimestepLength() float64   { return o.timestepLength }
func (o *BaseScheme) ComputedTimestepPart() float64 { return o.computedTimestepPart }

// ThisTimestepRemainder is timestepLength - computedTimestepPart; Advance is legal only once this is <= numericalZero.
func (o *BaseScheme) ThisTimestepRemainder() float64 {
	return o.timestepLength - o.computedTimestepPart
}

// NextTimestepMaxLength is the largest dt the solver may still request
// before overshooting the current timestep window.
func (o *BaseScheme) NextTimestepMaxLength() float64 { return o.ThisTimestepRemainder() }

// IsCouplingOngoing is true iff every configured stopping criterion still
// allows progress: time < maxTime (if set) AND timesteps <
// maxTimesteps (if set). Neither configured means unconditionally ongoing.
func (o *BaseScheme) IsCouplingOngoing() bool {
	if o.State == Finalized || o.State == Failed {
		return false
	}
	ongoing := true
	if o.hasMaxTime {
		ongoing = ongoing && o.time < o.maxTime-numericalZero
	}
	if o.hasMaxTimesteps {
		ongoing = ongoing && o.timesteps < o.maxTimesteps
	}
	return ongoing
}

func (o *BaseScheme) IsCouplingTimestepComplete() bool { return o.timestepComplete }
func (o *BaseScheme) HasDataBeenExchanged() bool       { return o.dataExchanged }

// WillDataBeExchanged reports whether the scheme would ship data on its next
// Advance call. In this design every Advance (explicit direct write/read, or
// one implicit sub-iteration's resend) performs an exchange, so the base
// answer is unconditional; a future variant whose Advance sometimes skips
// exchange would override this.
func (o *BaseScheme) WillDataBeExchanged(dtGuess float64) bool {
	return o.State == Initialized || o.State == Stepping || o.State == Iterating
}

func (o *BaseScheme) IsActionRequired(name string) bool { return o.actions[name] }
func (o *BaseScheme) PerformedAction(name string)       { delete(o.actions, name) }
func (o *BaseScheme) RequireAction(name string)         { o.actions[name] = true }

// AddComputedTime accumulates a solver-reported advance within the current
// timestep window. It does not itself reject overshoot; Advance
// does, since a solver may legitimately call AddComputedTime several times
// before calling Advance.
func (o *BaseScheme) AddComputedTime(dt float64) error {
	if o.State != Initialized && o.State != Stepping && o.State != Iterating {
		return newErr(ConfigError, o.Name, "addComputedTime called in state %s", o.State)
	}
	if dt < 0 {
		return newErr(ConfigError, o.Name, "addComputedTime: dt must be non-negative, got %g", dt)
	}
	o.computedTimestepPart += dt
	return nil
}

// checkOvershoot is the guard every concrete Advance calls before
// exchanging data: advancing is only legal once the remainder is at or
// below numericalZero; otherwise it fails with WouldOvershoot.
func (o *BaseScheme) checkOvershoot() error {
	if o.ThisTimestepRemainder() > numericalZero {
		return newErr(WouldOvershoot, o.Name, "advance called with remainder %.3e still outstanding", o.ThisTimestepRemainder())
	}
	return nil
}

// checkConvergence applies the configured measures (AND aggregation),
// suppressed until minIterations has been reached.
func (o *BaseScheme) checkConvergence() bool {
	if len(o.Measures) == 0 {
		return true
	}
	if o.minIterations > 0 && o.iteration < o.minIterations {
		return false
	}
	return acceleration.AllConverged(o.Measures)
}

// recordResidual appends this sub-iteration's residual norm (the L2 norm of
// the concatenation of every measured Data's raw residual) to History,
// starting a new per-timestep sublist when firstOfTimestep is true. Must run
// before StoreIteration overwrites oldValues.col(0), or the residual would
// read back as zero.
func (o *BaseScheme) recordResidual(firstOfTimestep bool, data []*couplingdata.Data) error {
	if o.History == nil {
		o.History = NewHistory()
	}
	var sumSq float64
	for _, d := range data {
		r, err := d.Residual()
		if err != nil {
			return err
		}
		for _, v := range r {
			sumSq += v * v
		}
	}
	o.History.Record(firstOfTimestep, math.Sqrt(sumSq))
	return nil
}

// forcedConvergence is true once the configured max-iterations bound is hit
// without natural convergence.
func (o *BaseScheme) forcedConvergence() bool {
	return o.maxIterations > 0 && o.iteration >= o.maxIterations
}

// commitTimestep advances the time/timesteps counters, resets the
// sub-iteration count and notifies post-processing that the timestep
// converged.
func (o *BaseScheme) commitTimestep() {
	o.time += o.timestepLength
	o.timesteps++
	o.computedTimestepPart = 0
	o.iteration = 0
	o.timestepComplete = true
	if o.PostProcessing != nil {
		o.PostProcessing.IterationsConverged(o.DataMap)
	}
	o.RequireAction(ActionWriteSimulationCheckpoint)
}

// WriteSimulationCheckpoint persists (time, timesteps, iteration) plus
// whatever of the configured post-processing's internal state this scheme
// knows how to serialize, so a solver that crashes after reading this
// checkpoint can resume the run exactly where it left off rather than
// restart from t=0. Driven by ActionWriteSimulationCheckpoint, the same
// require/perform flag protocol every other action uses.
func (o *BaseScheme) WriteSimulationCheckpoint(prefix string) error {
	if err := WriteSimState(prefix, SimState{Time: o.time, Timesteps: o.timesteps, AdvanceCount: o.iteration}); err != nil {
		return err
	}
	state := SchemeState{"iteration": strconv.Itoa(o.iteration)}
	if aitken, ok := o.PostProcessing.(*acceleration.Aitken); ok {
		state["omega-prev"] = strconv.FormatFloat(aitken.OmegaPrev(), 'g', -1, 64)
	}
	if err := WriteSchemeState(prefix, state); err != nil {
		return err
	}
	o.PerformedAction(ActionWriteSimulationCheckpoint)
	return nil
}

// RestoreSimulationCheckpoint reverses WriteSimulationCheckpoint: it
// restores (time, timesteps, iteration) and, if the configured
// post-processing is Aitken, its carried-over relaxation factor.
func (o *BaseScheme) RestoreSimulationCheckpoint(prefix string) error {
	st, err := ReadSimState(prefix)
	if err != nil {
		return err
	}
	o.time, o.timesteps, o.iteration = st.Time, st.Timesteps, st.AdvanceCount

	state, err := ReadSchemeState(prefix)
	if err != nil {
		return err
	}
	if aitken, ok := o.PostProcessing.(*acceleration.Aitken); ok {
		if raw, ok := state["omega-prev"]; ok {
			omega, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return newErr(ConfigError, o.Name, "restoring omega-prev: %v", err)
			}
			aitken.SetOmegaPrev(omega)
		}
	}
	return nil
}

// PrintCouplingState renders one diagnostic line.
func (o *BaseScheme) PrintCouplingState() string {
	return io.Sf("%s: t=%.6g dt=%.6g timesteps=%d ongoing=%v complete=%v",
		o.Name, o.time, o.timestepLength, o.timesteps, o.IsCouplingOngoing(), o.timestepComplete)
}

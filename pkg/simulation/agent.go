package simulation

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/geometry"
)

// AgentType tells naive agents apart from the two informed subgroups.
type AgentType int

const (
	Naive AgentType = iota
	Informed1
	Informed2
)

func (t AgentType) String() string {
	switch t {
	case Naive:
		return "naive"
	case Informed1:
		return "informed-1"
	case Informed2:
		return "informed-2"
	}
	return fmt.Sprintf("AgentType(%d)", int(t))
}

// State is the read-only view of an agent that its neighbours perceive during a step.
type State struct {
	ID      int
	Pos     geometry.Vector2D
	Heading geometry.Vector2D
}

// Agent is a self-propelled individual following the zonal rule
// (repulsion, then orientation + attraction, then preference blending).
type Agent struct {
	ID      int
	Type    AgentType
	Pos     geometry.Vector2D
	Heading geometry.Vector2D // unit length

	// Preference is the unit target direction of informed agents, zero for naive ones.
	Preference geometry.Vector2D

	RepulsionRadius float64
	SocialRadius    float64
	Speed           float64
	MaxTurnRate     float64

	// Feedback enables the adaptive preference weight.
	Feedback           bool
	PreferenceWeight   float64
	WeightMax          float64
	WeightIncrement    float64
	WeightDecrement    float64
	AlignmentThreshold float64
}

// NewAgent builds an agent from the shared parameters. The preference is
// normalized for informed agents and forced to zero for naive ones.
func NewAgent(id int, typ AgentType, pos, heading, preference geometry.Vector2D, p *Params, feedback bool) *Agent {
	a := &Agent{
		ID:                 id,
		Type:               typ,
		Pos:                pos,
		Heading:            heading.Normalize(),
		RepulsionRadius:    p.RepulsionRadius,
		SocialRadius:       p.SocialRadius,
		Speed:              p.Speed,
		MaxTurnRate:        p.MaxTurn,
		Feedback:           feedback,
		PreferenceWeight:   p.PreferenceWeight,
		WeightMax:          p.WeightMax,
		WeightIncrement:    p.WeightIncrement,
		WeightDecrement:    p.WeightDecrement,
		AlignmentThreshold: p.AlignmentThreshold,
	}
	if typ != Naive {
		a.Preference = preference.Normalize()
	}
	if feedback {
		a.PreferenceWeight = p.FeedbackInitialWeight
	}
	return a
}

// State returns the snapshot view of the agent.
func (a *Agent) State() State {
	return State{ID: a.ID, Pos: a.Pos, Heading: a.Heading}
}

// Update advances the agent by one step. snapshot holds pre-step states and
// must include every agent within SocialRadius, the agent itself included.
// It must not be modified while a step is in progress.
func (a *Agent) Update(snapshot []State, torus geometry.Torus) error {
	desired := a.socialDirection(snapshot, torus)

	if a.Type != Naive {
		if a.Feedback {
			a.adaptWeight()
		}
		desired = desired.Add(a.Preference.Mul(a.PreferenceWeight)).Normalize()
	}

	a.turnTowards(desired)

	a.Pos = torus.Wrap(a.Pos.Add(a.Heading.Mul(a.Speed)))

	if !a.Pos.IsFinite() || !a.Heading.IsFinite() {
		return fmt.Errorf("%w: agent %d (%s) pos=%v heading=%v", ErrNonFinite, a.ID, a.Type, a.Pos, a.Heading)
	}
	return nil
}

// socialDirection classifies the population into zones and returns the
// desired direction before preference blending. Repulsion wins over
// everything, otherwise attraction and orientation are blended with equal
// weight, otherwise the current heading is kept.
//
// The agent's own entry is not excluded from the social zone: its heading
// is added to the orientation sum and it counts as a social neighbour.
func (a *Agent) socialDirection(snapshot []State, torus geometry.Torus) geometry.Vector2D {
	var repulsion, orientation, attraction geometry.Vector2D
	repulsed := false
	socialCount := 0

	for _, other := range snapshot {
		self := other.ID == a.ID
		d := torus.Distance(a.Pos, other.Pos)

		if !self && d < a.RepulsionRadius {
			away := torus.Displacement(a.Pos, other.Pos).Mul(-1).Normalize()
			repulsion = repulsion.Add(away)
			repulsed = true
		} else if d < a.SocialRadius {
			if !self {
				toward := torus.Displacement(a.Pos, other.Pos).Normalize()
				attraction = attraction.Add(toward)
			}
			orientation = orientation.Add(other.Heading.Normalize())
			socialCount++
		}
	}

	switch {
	case repulsed:
		return repulsion.Normalize()
	case socialCount > 0:
		return attraction.Normalize().Add(orientation.Normalize()).Normalize()
	default:
		return a.Heading
	}
}

// adaptWeight grows the preference weight while the agent already travels
// within AlignmentThreshold of its preference, and shrinks it otherwise.
// The guards are checked before the step is applied, so the weight may end
// one increment above WeightMax or one decrement below zero.
func (a *Agent) adaptWeight() {
	aligned := a.Heading.AngleBetween(a.Preference) < a.AlignmentThreshold
	if aligned && a.PreferenceWeight < a.WeightMax {
		a.PreferenceWeight += a.WeightIncrement
	} else if a.PreferenceWeight > 0 {
		a.PreferenceWeight -= a.WeightDecrement
	}
}

// turnTowards rotates the heading toward desired by at most MaxTurnRate.
// A zero desired vector leaves the heading unchanged.
func (a *Agent) turnTowards(desired geometry.Vector2D) {
	if desired.LenSqr() == 0 {
		desired = a.Heading
	}

	theta := a.Heading.AngleBetween(desired)
	if theta > a.MaxTurnRate {
		sign := -1.0
		if a.Heading.Cross(desired) > 0 {
			sign = 1.0
		}
		a.Heading = a.Heading.Rotate(sign * a.MaxTurnRate)
	} else {
		a.Heading = desired
	}
	a.Heading = a.Heading.Normalize()
}

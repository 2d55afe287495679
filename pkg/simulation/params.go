package simulation

import (
	"errors"
	"fmt"
	"math"
)

// Default domain used by the sweep when the configuration does not override it.
const (
	DefaultWorldWidth  = 1400.0
	DefaultWorldHeight = 1000.0
	DefaultSteps       = 2000
)

var (
	// ErrInvalidRequest is returned before any agent is built when a run request
	// or its parameters are out of range.
	ErrInvalidRequest = errors.New("invalid run request")
	// ErrNonFinite flags an internal-consistency fault: an agent ended a step
	// with a NaN or infinite position or heading.
	ErrNonFinite = errors.New("non-finite agent state")
)

// Params holds the model constants shared by every agent of a run.
type Params struct {
	// Motion
	Speed   float64 `json:"speed"`   // distance travelled per step
	MaxTurn float64 `json:"maxTurn"` // maximum heading rotation per step (radians)

	// Zones
	RepulsionRadius float64 `json:"repulsionRadius"`
	SocialRadius    float64 `json:"socialRadius"` // orientation + attraction

	// Preference blending
	PreferenceWeight      float64 `json:"preferenceWeight"`      // fixed weight without feedback
	FeedbackInitialWeight float64 `json:"feedbackInitialWeight"` // starting weight with feedback
	WeightMax             float64 `json:"weightMax"`
	WeightIncrement       float64 `json:"weightIncrement"`
	WeightDecrement       float64 `json:"weightDecrement"`
	AlignmentThreshold    float64 `json:"alignmentThreshold"` // radians, below it the weight grows

	// Run orchestration
	InitialBoxSize    float64 `json:"initialBoxSize"`    // side of the centered spawn square
	MeasurementWindow int     `json:"measurementWindow"` // steps between the two centroid samples
}

// DefaultParams returns the reference parameter set of the model.
func DefaultParams() *Params {
	return &Params{
		Speed:                 1.0,
		MaxTurn:               0.3,
		RepulsionRadius:       2 * 12,
		SocialRadius:          2.5 * 92,
		PreferenceWeight:      0.35,
		FeedbackInitialWeight: 0.10,
		WeightMax:             0.45,
		WeightIncrement:       0.008,
		WeightDecrement:       0.0006,
		AlignmentThreshold:    0.17,
		InitialBoxSize:        50,
		MeasurementWindow:     250,
	}
}

// Validate checks that the parameters describe a usable model.
func (p *Params) Validate() error {
	switch {
	case p.Speed <= 0:
		return fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidRequest, p.Speed)
	case p.MaxTurn <= 0:
		return fmt.Errorf("%w: max turn must be positive, got %v", ErrInvalidRequest, p.MaxTurn)
	case p.RepulsionRadius < 0 || p.RepulsionRadius >= p.SocialRadius:
		return fmt.Errorf("%w: need 0 <= repulsion radius (%v) < social radius (%v)",
			ErrInvalidRequest, p.RepulsionRadius, p.SocialRadius)
	case p.WeightMax < 0 || p.PreferenceWeight < 0 || p.FeedbackInitialWeight < 0:
		return fmt.Errorf("%w: preference weights must not be negative", ErrInvalidRequest)
	case p.InitialBoxSize < 0:
		return fmt.Errorf("%w: initial box size must not be negative, got %v", ErrInvalidRequest, p.InitialBoxSize)
	case p.MeasurementWindow < 0:
		return fmt.Errorf("%w: measurement window must not be negative, got %d", ErrInvalidRequest, p.MeasurementWindow)
	}
	return nil
}

// RunRequest is one fully-resolved configuration of a single simulation run.
type RunRequest struct {
	PopulationSize int     `json:"populationSize"`
	Informed1      int     `json:"informed1"`
	Informed2      int     `json:"informed2"`
	Angle1         float64 `json:"angle1"` // radians
	Angle2         float64 `json:"angle2"` // radians
	Steps          int     `json:"steps"`
	Feedback       bool    `json:"feedback"`
	WorldWidth     float64 `json:"worldWidth"`
	WorldHeight    float64 `json:"worldHeight"`
	Seed           int64   `json:"seed"`
}

// Validate rejects out-of-range requests.
func (r RunRequest) Validate() error {
	switch {
	case r.PopulationSize <= 0:
		return fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidRequest, r.PopulationSize)
	case r.Informed1 < 0 || r.Informed2 < 0:
		return fmt.Errorf("%w: informed counts must not be negative, got %d and %d", ErrInvalidRequest, r.Informed1, r.Informed2)
	case r.Informed1+r.Informed2 > r.PopulationSize:
		return fmt.Errorf("%w: %d + %d informed agents exceed population %d",
			ErrInvalidRequest, r.Informed1, r.Informed2, r.PopulationSize)
	case r.Steps <= 0:
		return fmt.Errorf("%w: step horizon must be positive, got %d", ErrInvalidRequest, r.Steps)
	case r.WorldWidth <= 0 || r.WorldHeight <= 0:
		return fmt.Errorf("%w: domain must have positive dimensions, got %vx%v", ErrInvalidRequest, r.WorldWidth, r.WorldHeight)
	case math.IsNaN(r.Angle1) || math.IsInf(r.Angle1, 0) || math.IsNaN(r.Angle2) || math.IsInf(r.Angle2, 0):
		return fmt.Errorf("%w: preference angles must be finite", ErrInvalidRequest)
	}
	return nil
}

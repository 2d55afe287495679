package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/geometry"
)

// seedStream is the fixed PCG stream; the run seed selects the state.
const seedStream = 0x9e3779b97f4a7c15

// Result is the outcome of a single run.
type Result struct {
	// Direction is the unit net displacement of the circular centroid over
	// the measurement window.
	Direction   geometry.Vector2D `json:"direction"`
	BoundingBox BoundingBox       `json:"boundingBox"`

	CentroidBefore geometry.Vector2D `json:"centroidBefore"`
	CentroidAfter  geometry.Vector2D `json:"centroidAfter"`
}

// Model runs one parameter configuration from spawn to measurement.
// It is used once and then discarded.
type Model struct {
	req    RunRequest
	params Params
	torus  geometry.Torus
	rng    *rand.Rand
	flock  *Flock
}

// NewModel validates the request and prepares a run. A nil params uses DefaultParams.
func NewModel(req RunRequest, params *Params) (*Model, error) {
	if params == nil {
		params = DefaultParams()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if req.Steps <= params.MeasurementWindow {
		return nil, fmt.Errorf("%w: step horizon %d must exceed measurement window %d",
			ErrInvalidRequest, req.Steps, params.MeasurementWindow)
	}

	return &Model{
		req:    req,
		params: *params,
		torus:  geometry.Torus{Width: req.WorldWidth, Height: req.WorldHeight},
		rng:    rand.New(rand.NewPCG(uint64(req.Seed), seedStream)),
	}, nil
}

// Run is a shortcut for NewModel followed by Model.Run.
func Run(req RunRequest, params *Params) (Result, error) {
	m, err := NewModel(req, params)
	if err != nil {
		return Result{}, err
	}
	return m.Run()
}

// Run spawns the population, advances it for the step horizon and measures
// the group direction and bounding box.
func (m *Model) Run() (Result, error) {
	m.spawn()

	var (
		steps  = m.req.Steps
		before = steps - m.params.MeasurementWindow - 1
		last   = steps - 1
		res    Result
	)

	for t := 0; t < steps; t++ {
		// centroids are sampled before the step is applied
		if t == before {
			res.CentroidBefore = m.flock.CircularCentroid()
		}
		if t == last {
			res.CentroidAfter = m.flock.CircularCentroid()
		}
		if err := m.flock.Advance(); err != nil {
			return Result{}, fmt.Errorf("step %d: %w", t, err)
		}
	}

	res.Direction = m.flock.PeriodicDisplacement(res.CentroidAfter, res.CentroidBefore).Normalize()
	res.BoundingBox = m.flock.BoundingExtent(res.Direction, res.CentroidAfter)
	return res, nil
}

// Flock exposes the population of the last Run, nil before the first one.
func (m *Model) Flock() *Flock {
	return m.flock
}

// spawn builds the population: the first Informed1 agents prefer Angle1,
// the next Informed2 prefer Angle2, the rest are naive. Every agent starts
// in a square of side InitialBoxSize centered on the domain with a uniform
// random heading, all drawn from the run's own generator.
func (m *Model) spawn() {
	m.flock = NewFlock(m.torus)

	var (
		half = m.params.InitialBoxSize / 2
		minX = m.torus.Width/2 - half
		minY = m.torus.Height/2 - half
		g1   = geometry.FromAngle(m.req.Angle1)
		g2   = geometry.FromAngle(m.req.Angle2)
	)

	for i := 0; i < m.req.PopulationSize; i++ {
		typ, pref := Naive, geometry.Vector2D{}
		switch {
		case i < m.req.Informed1:
			typ, pref = Informed1, g1
		case i < m.req.Informed1+m.req.Informed2:
			typ, pref = Informed2, g2
		}

		pos := geometry.Vector2D{
			X: minX + m.rng.Float64()*m.params.InitialBoxSize,
			Y: minY + m.rng.Float64()*m.params.InitialBoxSize,
		}
		heading := geometry.FromAngle(m.rng.Float64() * 2 * math.Pi)

		m.flock.Add(NewAgent(i, typ, m.torus.Wrap(pos), heading, pref, &m.params, m.req.Feedback))
	}
}

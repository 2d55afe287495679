package simulation

import (
	"math"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/geometry"
)

// BoundingBox is the spatial extent of a group measured along its direction
// of travel and across it.
type BoundingBox struct {
	Along float64 `json:"along"`
	Perp  float64 `json:"perp"`
}

// Flock owns the agents of one run.
type Flock struct {
	agents []*Agent
	torus  geometry.Torus

	// snapshot is rebuilt at each step, keeping its capacity between steps.
	snapshot []State
	grid     spatialGrid
	nearby   []State
}

// NewFlock creates an empty flock living on the given torus.
func NewFlock(torus geometry.Torus) *Flock {
	return &Flock{torus: torus}
}

// Add appends an agent. The flock takes exclusive ownership of it.
func (f *Flock) Add(a *Agent) {
	f.agents = append(f.agents, a)
}

// Agents returns the agents in insertion order.
func (f *Flock) Agents() []*Agent {
	return f.agents
}

// Len returns the population size.
func (f *Flock) Len() int {
	return len(f.agents)
}

// Torus returns the domain of the flock.
func (f *Flock) Torus() geometry.Torus {
	return f.torus
}

// Advance moves every agent by one step. All agents perceive the same
// pre-step snapshot, so the outcome does not depend on the update order.
// Each agent only scans the grid cells around it.
func (f *Flock) Advance() error {
	f.snapshot = f.snapshot[:0]
	radius := 0.0
	for _, a := range f.agents {
		f.snapshot = append(f.snapshot, a.State())
		radius = math.Max(radius, math.Max(a.SocialRadius, a.RepulsionRadius))
	}
	f.grid.reset(f.torus, radius, len(f.snapshot))
	f.grid.rebuild(f.snapshot)

	for _, a := range f.agents {
		f.nearby = f.grid.appendNearby(f.nearby[:0], f.snapshot, a.Pos)
		if err := a.Update(f.nearby, f.torus); err != nil {
			return err
		}
	}
	return nil
}

// CircularCentroid averages positions on the torus: each axis is mapped to
// an angle, the angles are averaged through their sines and cosines, and the
// mean angle is mapped back to a coordinate inside the domain.
func (f *Flock) CircularCentroid() geometry.Vector2D {
	var sumCosX, sumSinX, sumCosY, sumSinY float64

	for _, a := range f.agents {
		sinX, cosX := math.Sincos(a.Pos.X / f.torus.Width * 2 * math.Pi)
		sinY, cosY := math.Sincos(a.Pos.Y / f.torus.Height * 2 * math.Pi)
		sumCosX += cosX
		sumSinX += sinX
		sumCosY += cosY
		sumSinY += sinY
	}

	cx := math.Atan2(sumSinX, sumCosX) / (2 * math.Pi) * f.torus.Width
	cy := math.Atan2(sumSinY, sumCosY) / (2 * math.Pi) * f.torus.Height
	return f.torus.Wrap(geometry.Vector2D{X: cx, Y: cy})
}

// PeriodicDisplacement returns the signed minimal displacement from b to a.
func (f *Flock) PeriodicDisplacement(a, b geometry.Vector2D) geometry.Vector2D {
	return f.torus.Displacement(b, a)
}

// BoundingExtent projects the displacement of every agent from ref onto dir
// and onto its perpendicular, and returns the spread of both projections.
// dir is expected to be a unit vector.
func (f *Flock) BoundingExtent(dir, ref geometry.Vector2D) BoundingBox {
	if len(f.agents) == 0 {
		return BoundingBox{}
	}

	minAlong, maxAlong := math.Inf(1), math.Inf(-1)
	minPerp, maxPerp := math.Inf(1), math.Inf(-1)
	perpDir := dir.Perp()

	for _, a := range f.agents {
		d := f.PeriodicDisplacement(a.Pos, ref)
		along := d.Dot(dir)
		perp := d.Dot(perpDir)

		minAlong = math.Min(minAlong, along)
		maxAlong = math.Max(maxAlong, along)
		minPerp = math.Min(minPerp, perp)
		maxPerp = math.Max(maxPerp, perp)
	}

	return BoundingBox{Along: maxAlong - minAlong, Perp: maxPerp - minPerp}
}

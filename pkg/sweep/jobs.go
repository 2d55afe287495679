package sweep

import (
	"fmt"
	"math"
	"time"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/results"
	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/simulation"
)

// Job is one fully-resolved run of a sweep.
type Job struct {
	Index     int     // position in the enumeration, also feeds the seed
	Rep       int     // repetition number, 1..NumRuns
	Fraction  float64 // informed fraction p
	Angle1Deg float64
	Angle2Deg float64
	Request   simulation.RunRequest
}

// Row pairs the job parameters with the outcome of its run.
func (j Job) Row(res simulation.Result) results.Row {
	return results.Row{
		Run:       j.Rep,
		N:         j.Request.PopulationSize,
		P:         j.Fraction,
		N1:        j.Request.Informed1,
		N2:        j.Request.Informed2,
		Angle1Deg: j.Angle1Deg,
		Angle2Deg: j.Angle2Deg,
		DirX:      res.Direction.X,
		DirY:      res.Direction.Y,
		BoxAlong:  res.BoundingBox.Along,
		BoxPerp:   res.BoundingBox.Perp,
	}
}

func (j Job) String() string {
	return fmt.Sprintf("run %d | N=%d p=%g n1=%d n2=%d angle1=%g angle2=%g",
		j.Rep, j.Request.PopulationSize, j.Fraction, j.Request.Informed1, j.Request.Informed2, j.Angle1Deg, j.Angle2Deg)
}

// MasterSeed returns the configured seed, or one taken from the clock.
func (c *Config) MasterSeed() int64 {
	if c.Seed != nil {
		return *c.Seed
	}
	return time.Now().UnixNano()
}

// DeriveSeed mixes the master seed with a job index through a splitmix64
// finalizer, so neighbouring jobs get unrelated generator states.
func DeriveSeed(master int64, index int) int64 {
	z := uint64(master) + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

type informedSplit struct {
	n1, n2 int
	p      float64
}

// Jobs enumerates the sweep in a fixed order: population size, informed
// split, angle1, angle2 and finally the repetition. Every resolved request
// is validated, so a bad combination is reported before anything runs.
func Jobs(cfg *Config, master int64) ([]Job, error) {
	width, height := cfg.WorldWidth, cfg.WorldHeight
	if width == 0 {
		width = simulation.DefaultWorldWidth
	}
	if height == 0 {
		height = simulation.DefaultWorldHeight
	}

	var jobs []Job
	for _, n := range cfg.NValues {
		for _, split := range splits(cfg, n) {
			for _, a1 := range cfg.Angle1DegValues {
				for _, a2 := range cfg.Angle2DegValues {
					for rep := 1; rep <= cfg.NumRuns; rep++ {
						index := len(jobs)
						req := simulation.RunRequest{
							PopulationSize: n,
							Informed1:      split.n1,
							Informed2:      split.n2,
							Angle1:         DegToRad(a1),
							Angle2:         DegToRad(a2),
							Steps:          cfg.RunTime,
							Feedback:       cfg.UseFeedback,
							WorldWidth:     width,
							WorldHeight:    height,
							Seed:           DeriveSeed(master, index),
						}
						if err := req.Validate(); err != nil {
							return nil, fmt.Errorf("%w: N=%d n1=%d n2=%d: %w", ErrInvalidConfig, n, split.n1, split.n2, err)
						}
						jobs = append(jobs, Job{
							Index:     index,
							Rep:       rep,
							Fraction:  split.p,
							Angle1Deg: a1,
							Angle2Deg: a2,
							Request:   req,
						})
					}
				}
			}
		}
	}
	return jobs, nil
}

func splits(cfg *Config, n int) []informedSplit {
	var out []informedSplit
	if cfg.FractionMode() {
		for _, p := range cfg.PValues {
			out = append(out, informedSplit{n1: int(p * float64(n)), n2: 0, p: p})
		}
		return out
	}
	for _, n1 := range cfg.N1Values {
		for _, n2 := range cfg.N2Values {
			out = append(out, informedSplit{n1: n1, n2: n2, p: float64(n1) / float64(n)})
		}
	}
	return out
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

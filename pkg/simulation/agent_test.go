package simulation

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/geometry"
)

var testTorus = geometry.Torus{Width: 1400, Height: 1000}

func newTestAgent(id int, typ AgentType, pos, heading, pref geometry.Vector2D, feedback bool) *Agent {
	return NewAgent(id, typ, pos, heading, pref, DefaultParams(), feedback)
}

func TestNewAgent(t *testing.T) {
	t.Run("naive drops preference", func(t *testing.T) {
		a := newTestAgent(0, Naive, geometry.Vector2D{}, geometry.Vector2D{X: 2}, geometry.Vector2D{X: 1}, false)
		if a.Preference != (geometry.Vector2D{}) {
			t.Errorf("naive preference = %v; want zero", a.Preference)
		}
		if !a.Heading.Eq(geometry.Vector2D{X: 1}) {
			t.Errorf("heading = %v; want normalized (1, 0)", a.Heading)
		}
	})

	t.Run("informed keeps unit preference", func(t *testing.T) {
		a := newTestAgent(0, Informed2, geometry.Vector2D{}, geometry.Vector2D{X: 1}, geometry.Vector2D{Y: 3}, false)
		if !a.Preference.Eq(geometry.Vector2D{Y: 1}) {
			t.Errorf("preference = %v; want (0, 1)", a.Preference)
		}
		if a.PreferenceWeight != 0.35 {
			t.Errorf("weight = %v; want 0.35", a.PreferenceWeight)
		}
	})

	t.Run("feedback lowers initial weight", func(t *testing.T) {
		a := newTestAgent(0, Informed1, geometry.Vector2D{}, geometry.Vector2D{X: 1}, geometry.Vector2D{X: 1}, true)
		if a.PreferenceWeight != 0.10 {
			t.Errorf("weight = %v; want 0.10", a.PreferenceWeight)
		}
	})
}

func TestAgentType_String(t *testing.T) {
	tests := map[AgentType]string{Naive: "naive", Informed1: "informed-1", Informed2: "informed-2", AgentType(7): "AgentType(7)"}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q; want %q", got, want)
		}
	}
}

func TestAgent_socialDirection_RepulsionDominates(t *testing.T) {
	me := newTestAgent(0, Naive, geometry.Vector2D{X: 500, Y: 500}, geometry.Vector2D{X: 1}, geometry.Vector2D{}, false)
	snapshot := []State{
		me.State(),
		{ID: 1, Pos: geometry.Vector2D{X: 510, Y: 500}, Heading: geometry.Vector2D{Y: 1}}, // repulsion zone
		{ID: 2, Pos: geometry.Vector2D{X: 500, Y: 490}, Heading: geometry.Vector2D{Y: 1}}, // repulsion zone
	}
	// a crowd in the social zone must not change the outcome
	for i := 0; i < 20; i++ {
		angle := float64(i) / 20 * 2 * math.Pi
		snapshot = append(snapshot, State{
			ID:      10 + i,
			Pos:     geometry.Vector2D{X: 500, Y: 500}.Add(geometry.FromAngle(angle).Mul(100)),
			Heading: geometry.FromAngle(angle),
		})
	}

	got := me.socialDirection(snapshot, testTorus)
	want := geometry.Vector2D{X: -1, Y: 1}.Normalize()
	if !got.Eq(want) {
		t.Errorf("socialDirection = %v; want %v", got, want)
	}
}

func TestAgent_socialDirection_RepulsionAcrossBoundary(t *testing.T) {
	me := newTestAgent(0, Naive, geometry.Vector2D{X: 1, Y: 500}, geometry.Vector2D{Y: 1}, geometry.Vector2D{}, false)
	snapshot := []State{
		me.State(),
		{ID: 1, Pos: geometry.Vector2D{X: 1395, Y: 500}, Heading: geometry.Vector2D{Y: 1}},
	}
	got := me.socialDirection(snapshot, testTorus)
	if !got.Eq(geometry.Vector2D{X: 1}) {
		t.Errorf("socialDirection = %v; want (1, 0) away from the wrapped neighbour", got)
	}
}

func TestAgent_socialDirection_Isolation(t *testing.T) {
	heading := geometry.FromAngle(1.2)
	me := newTestAgent(0, Naive, geometry.Vector2D{X: 700, Y: 500}, heading, geometry.Vector2D{}, false)

	tests := []struct {
		name     string
		snapshot []State
	}{
		{"empty snapshot", nil},
		{"only self", []State{me.State()}},
		{"neighbour out of range", []State{me.State(), {ID: 1, Pos: geometry.Vector2D{X: 100, Y: 100}, Heading: geometry.Vector2D{X: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := me.socialDirection(tt.snapshot, testTorus)
			if !got.Eq(heading) {
				t.Errorf("socialDirection = %v; want current heading %v", got, heading)
			}
		})
	}
}

func TestAgent_socialDirection_SelfCountsForOrientation(t *testing.T) {
	me := newTestAgent(0, Naive, geometry.Vector2D{X: 500, Y: 500}, geometry.Vector2D{Y: 1}, geometry.Vector2D{}, false)
	snapshot := []State{
		me.State(),
		{ID: 1, Pos: geometry.Vector2D{X: 600, Y: 500}, Heading: geometry.Vector2D{X: 1}},
	}

	got := me.socialDirection(snapshot, testTorus)

	attraction := geometry.Vector2D{X: 1}
	orientation := geometry.Vector2D{X: 1, Y: 1}.Normalize() // neighbour + own heading
	want := attraction.Add(orientation).Normalize()
	if !got.Eq(want) {
		t.Errorf("socialDirection = %v; want %v", got, want)
	}
}

func TestAgent_Update_TurnRateCap(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 2000; i++ {
		heading := geometry.FromAngle(rng.Float64() * 2 * math.Pi)
		desired := geometry.FromAngle(rng.Float64() * 2 * math.Pi).Mul(0.1 + rng.Float64()*5)

		a := newTestAgent(0, Naive, geometry.Vector2D{X: 700, Y: 500}, heading, geometry.Vector2D{}, false)
		a.turnTowards(desired)

		if turned := heading.AngleBetween(a.Heading); turned > a.MaxTurnRate+1e-9 {
			t.Fatalf("turned %v rad from %v toward %v; cap is %v", turned, heading, desired, a.MaxTurnRate)
		}
		if math.Abs(a.Heading.Len()-1) > 1e-9 {
			t.Fatalf("heading %v is not unit length", a.Heading)
		}
		if heading.AngleBetween(desired) <= a.MaxTurnRate && !a.Heading.Eq(desired.Normalize()) {
			t.Fatalf("small turn: heading = %v; want %v", a.Heading, desired.Normalize())
		}
	}
}

func TestAgent_turnTowards_Direction(t *testing.T) {
	tests := []struct {
		name    string
		desired geometry.Vector2D
		want    geometry.Vector2D
	}{
		{"counter-clockwise", geometry.Vector2D{Y: 1}, geometry.FromAngle(0.3)},
		{"clockwise", geometry.Vector2D{Y: -1}, geometry.FromAngle(-0.3)},
		{"within cap", geometry.FromAngle(0.2), geometry.FromAngle(0.2)},
		{"zero desired keeps heading", geometry.Vector2D{}, geometry.Vector2D{X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(0, Naive, geometry.Vector2D{}, geometry.Vector2D{X: 1}, geometry.Vector2D{}, false)
			a.turnTowards(tt.desired)
			if !a.Heading.Eq(tt.want) {
				t.Errorf("heading = %v; want %v", a.Heading, tt.want)
			}
		})
	}
}

func TestAgent_Update_PreferenceBlend(t *testing.T) {
	// alone, heading north, preferring north-east: the blend stays under the turn cap
	pref := geometry.FromAngle(math.Pi / 4)
	a := newTestAgent(0, Informed1, geometry.Vector2D{X: 700, Y: 500}, geometry.Vector2D{Y: 1}, pref, false)
	if err := a.Update([]State{a.State()}, testTorus); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	want := geometry.Vector2D{Y: 1}.Add(pref.Mul(0.35)).Normalize()
	if !a.Heading.Eq(want) {
		t.Errorf("heading = %v; want %v", a.Heading, want)
	}
	wantPos := geometry.Vector2D{X: 700, Y: 500}.Add(want)
	if !a.Pos.Eq(wantPos) {
		t.Errorf("pos = %v; want %v", a.Pos, wantPos)
	}
}

func TestAgent_Update_FeedbackWeight(t *testing.T) {
	east := geometry.Vector2D{X: 1}
	north := geometry.Vector2D{Y: 1}

	tests := []struct {
		name    string
		heading geometry.Vector2D
		weight  float64
		want    float64
	}{
		{"aligned grows", east, 0.10, 0.108},
		{"misaligned shrinks", north, 0.10, 0.0994},
		{"aligned at max shrinks", east, 0.45, 0.4494},
		{"aligned just below max overshoots", east, 0.449, 0.457},
		{"small weight crosses zero", north, 0.0004, -0.0002},
		{"negative weight is left alone", north, -0.0002, -0.0002},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(0, Informed1, geometry.Vector2D{X: 700, Y: 500}, tt.heading, east, true)
			a.PreferenceWeight = tt.weight
			if err := a.Update([]State{a.State()}, testTorus); err != nil {
				t.Fatalf("Update returned error: %v", err)
			}
			if math.Abs(a.PreferenceWeight-tt.want) > 1e-12 {
				t.Errorf("weight = %v; want %v", a.PreferenceWeight, tt.want)
			}
		})
	}
}

func TestAgent_Update_NaiveIgnoresFeedback(t *testing.T) {
	a := newTestAgent(0, Naive, geometry.Vector2D{X: 700, Y: 500}, geometry.Vector2D{X: 1}, geometry.Vector2D{}, true)
	before := a.PreferenceWeight
	if err := a.Update([]State{a.State()}, testTorus); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if a.PreferenceWeight != before {
		t.Errorf("weight changed from %v to %v for a naive agent", before, a.PreferenceWeight)
	}
}

func TestAgent_Update_WrapsPosition(t *testing.T) {
	a := newTestAgent(0, Naive, geometry.Vector2D{X: 1399.5, Y: 0.2}, geometry.Vector2D{X: 1, Y: -1}, geometry.Vector2D{}, false)
	if err := a.Update([]State{a.State()}, testTorus); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !testTorus.Contains(a.Pos) {
		t.Errorf("pos %v outside the domain", a.Pos)
	}
	if a.Pos.X > 1 || a.Pos.Y < 999 {
		t.Errorf("pos %v did not wrap on both axes", a.Pos)
	}
}

func TestAgent_Update_NonFinite(t *testing.T) {
	a := newTestAgent(0, Naive, geometry.Vector2D{X: math.NaN(), Y: 1}, geometry.Vector2D{X: 1}, geometry.Vector2D{}, false)
	err := a.Update([]State{a.State()}, testTorus)
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("Update error = %v; want ErrNonFinite", err)
	}
}

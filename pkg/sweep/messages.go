package sweep

import (
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/results"
	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/simulation"
)

const (
	kindField  = "kind"
	kindJob    = "job"
	kindResult = "outcome"

	statusOK     = "ok"
	statusFailed = "failed"
)

// Outcome is what the sink reports back to the driver for one job.
type Outcome struct {
	Index int
	Row   results.Row
	Err   error // the run failed, Row only carries the parameters

	// SinkErr is set when the row could not be persisted.
	SinkErr error
}

// Failed reports whether the run itself failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// ToProto wraps the job into the protobuf envelope sent to a runner.
// The seed travels as a string to keep all 64 bits.
func (j Job) ToProto() *structpb.Struct {
	r := j.Request
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		kindField:    structpb.NewStringValue(kindJob),
		"index":      structpb.NewNumberValue(float64(j.Index)),
		"rep":        structpb.NewNumberValue(float64(j.Rep)),
		"p":          structpb.NewNumberValue(j.Fraction),
		"angle1_deg": structpb.NewNumberValue(j.Angle1Deg),
		"angle2_deg": structpb.NewNumberValue(j.Angle2Deg),
		"N":          structpb.NewNumberValue(float64(r.PopulationSize)),
		"n1":         structpb.NewNumberValue(float64(r.Informed1)),
		"n2":         structpb.NewNumberValue(float64(r.Informed2)),
		"angle1":     structpb.NewNumberValue(r.Angle1),
		"angle2":     structpb.NewNumberValue(r.Angle2),
		"steps":      structpb.NewNumberValue(float64(r.Steps)),
		"feedback":   structpb.NewBoolValue(r.Feedback),
		"width":      structpb.NewNumberValue(r.WorldWidth),
		"height":     structpb.NewNumberValue(r.WorldHeight),
		"seed":       structpb.NewStringValue(strconv.FormatInt(r.Seed, 10)),
	}}
}

// JobFromProto converts the envelope back into a Job.
func JobFromProto(s *structpb.Struct) (Job, error) {
	d := decoder{s: s}
	d.expectKind(kindJob)
	job := Job{
		Index:     d.getInt("index"),
		Rep:       d.getInt("rep"),
		Fraction:  d.getFloat("p"),
		Angle1Deg: d.getFloat("angle1_deg"),
		Angle2Deg: d.getFloat("angle2_deg"),
		Request: simulation.RunRequest{
			PopulationSize: d.getInt("N"),
			Informed1:      d.getInt("n1"),
			Informed2:      d.getInt("n2"),
			Angle1:         d.getFloat("angle1"),
			Angle2:         d.getFloat("angle2"),
			Steps:          d.getInt("steps"),
			Feedback:       d.getBool("feedback"),
			WorldWidth:     d.getFloat("width"),
			WorldHeight:    d.getFloat("height"),
			Seed:           d.getInt64("seed"),
		},
	}
	return job, d.err
}

// ToProto wraps the outcome into the envelope sent from a runner to the sink.
func (o Outcome) ToProto() *structpb.Struct {
	status, errMsg := statusOK, ""
	if o.Err != nil {
		status, errMsg = statusFailed, o.Err.Error()
	}
	r := o.Row
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		kindField:    structpb.NewStringValue(kindResult),
		"index":      structpb.NewNumberValue(float64(o.Index)),
		"status":     structpb.NewStringValue(status),
		"error":      structpb.NewStringValue(errMsg),
		"run":        structpb.NewNumberValue(float64(r.Run)),
		"N":          structpb.NewNumberValue(float64(r.N)),
		"p":          structpb.NewNumberValue(r.P),
		"n1":         structpb.NewNumberValue(float64(r.N1)),
		"n2":         structpb.NewNumberValue(float64(r.N2)),
		"angle1_deg": structpb.NewNumberValue(r.Angle1Deg),
		"angle2_deg": structpb.NewNumberValue(r.Angle2Deg),
		"dirX":       structpb.NewNumberValue(r.DirX),
		"dirY":       structpb.NewNumberValue(r.DirY),
		"bbox_X":     structpb.NewNumberValue(r.BoxAlong),
		"bbox_Y":     structpb.NewNumberValue(r.BoxPerp),
	}}
}

// OutcomeFromProto converts the envelope back into an Outcome.
func OutcomeFromProto(s *structpb.Struct) (Outcome, error) {
	d := decoder{s: s}
	d.expectKind(kindResult)
	out := Outcome{
		Index: d.getInt("index"),
		Row: results.Row{
			Run:       d.getInt("run"),
			N:         d.getInt("N"),
			P:         d.getFloat("p"),
			N1:        d.getInt("n1"),
			N2:        d.getInt("n2"),
			Angle1Deg: d.getFloat("angle1_deg"),
			Angle2Deg: d.getFloat("angle2_deg"),
			DirX:      d.getFloat("dirX"),
			DirY:      d.getFloat("dirY"),
			BoxAlong:  d.getFloat("bbox_X"),
			BoxPerp:   d.getFloat("bbox_Y"),
		},
	}
	switch status := d.getString("status"); status {
	case statusOK:
	case statusFailed:
		out.Err = errors.New(d.getString("error"))
	default:
		if d.err == nil {
			d.err = fmt.Errorf("unknown outcome status %q", status)
		}
	}
	return out, d.err
}

// decoder reads typed fields out of a Struct and keeps the first error.
type decoder struct {
	s   *structpb.Struct
	err error
}

func (d *decoder) value(key string) *structpb.Value {
	if d.err != nil {
		return nil
	}
	v, ok := d.s.GetFields()[key]
	if !ok {
		d.err = fmt.Errorf("message field %q is missing", key)
		return nil
	}
	return v
}

func (d *decoder) expectKind(kind string) {
	if got := d.getString(kindField); d.err == nil && got != kind {
		d.err = fmt.Errorf("message kind is %q, want %q", got, kind)
	}
}

func (d *decoder) getFloat(key string) float64 {
	v := d.value(key)
	if v == nil {
		return 0
	}
	if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
		d.err = fmt.Errorf("message field %q is not a number", key)
		return 0
	}
	return v.GetNumberValue()
}

func (d *decoder) getInt(key string) int {
	return int(d.getFloat(key))
}

func (d *decoder) getBool(key string) bool {
	v := d.value(key)
	if v == nil {
		return false
	}
	if _, ok := v.GetKind().(*structpb.Value_BoolValue); !ok {
		d.err = fmt.Errorf("message field %q is not a boolean", key)
		return false
	}
	return v.GetBoolValue()
}

func (d *decoder) getString(key string) string {
	v := d.value(key)
	if v == nil {
		return ""
	}
	if _, ok := v.GetKind().(*structpb.Value_StringValue); !ok {
		d.err = fmt.Errorf("message field %q is not a string", key)
		return ""
	}
	return v.GetStringValue()
}

func (d *decoder) getInt64(key string) int64 {
	s := d.getString(key)
	if d.err != nil {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		d.err = fmt.Errorf("message field %q: %w", key, err)
	}
	return n
}

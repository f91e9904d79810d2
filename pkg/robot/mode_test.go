package robot

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/gwillem/portstest/pkg/hw"
)

// recordingMotor records every call for verification.
type recordingMotor struct {
	calls   []string
	failOn  string // fail the call with this op
	current int32
}

var errHardware = errors.New("hardware fault")

func (m *recordingMotor) record(op string) error {
	m.calls = append(m.calls, op)
	if op == m.failOn {
		return errHardware
	}
	return nil
}

func (m *recordingMotor) SetMode(_ context.Context, mode hw.RunMode) error {
	return m.record("mode:" + mode.String())
}

func (m *recordingMotor) SetTargetPosition(_ context.Context, ticks int32) error {
	return m.record(fmt.Sprintf("target:%d", ticks))
}

func (m *recordingMotor) SetPower(_ context.Context, power float64) error {
	return m.record(fmt.Sprintf("power:%g", power))
}

func (m *recordingMotor) CurrentPosition(_ context.Context) (int32, error) {
	return m.current, m.record("position")
}

func referencedMotor(t *testing.T, rec *recordingMotor) *Motor {
	t.Helper()
	m := NewMotor("M", rec)
	if err := ResetEncoders(context.Background(), []*Motor{m}); err != nil {
		t.Fatalf("ResetEncoders: %v", err)
	}
	rec.calls = nil
	return m
}

func TestMotor_InitialState(t *testing.T) {
	m := NewMotor("M", &recordingMotor{})
	if m.Mode() != hw.ModeUnknown {
		t.Errorf("initial mode = %s, want unknown", m.Mode())
	}
	if m.Referenced() {
		t.Error("new motor should not be referenced")
	}
	if m.Name() != "M" {
		t.Errorf("Name() = %q", m.Name())
	}
}

func TestMotor_CommandsRejectedBeforeReference(t *testing.T) {
	ctx := context.Background()

	sequences := []struct {
		name  string
		modes []hw.RunMode
	}{
		{"power-on", nil},
		{"reset only", []hw.RunMode{hw.ModeReset}},
		{"encoder without reset", []hw.RunMode{hw.ModeRunUsingEncoder}},
		{"reset after reference", []hw.RunMode{hw.ModeReset, hw.ModeRunUsingEncoder, hw.ModeReset}},
	}

	for _, tc := range sequences {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recordingMotor{}
			m := NewMotor("M", rec)
			for _, mode := range tc.modes {
				if err := m.SetMode(ctx, mode); err != nil {
					t.Fatalf("SetMode(%s): %v", mode, err)
				}
			}
			rec.calls = nil

			if err := m.SetTargetPosition(ctx, 10); !errors.Is(err, ErrInvalidModeTransition) {
				t.Errorf("SetTargetPosition error = %v, want ErrInvalidModeTransition", err)
			}
			if err := m.SetPower(ctx, 0.5); !errors.Is(err, ErrInvalidModeTransition) {
				t.Errorf("SetPower error = %v, want ErrInvalidModeTransition", err)
			}
			if err := m.SetMode(ctx, hw.ModeRunToPosition); !errors.Is(err, ErrInvalidModeTransition) {
				t.Errorf("SetMode(run to position) error = %v, want ErrInvalidModeTransition", err)
			}
			if err := m.RunToPosition(ctx, 10, 0.5); !errors.Is(err, ErrInvalidModeTransition) {
				t.Errorf("RunToPosition error = %v, want ErrInvalidModeTransition", err)
			}
			if len(rec.calls) != 0 {
				t.Errorf("rejected commands reached hardware: %v", rec.calls)
			}
		})
	}
}

func TestMotor_SetModeUnknownRejected(t *testing.T) {
	rec := &recordingMotor{}
	m := referencedMotor(t, rec)
	if err := m.SetMode(context.Background(), hw.ModeUnknown); !errors.Is(err, ErrInvalidModeTransition) {
		t.Errorf("SetMode(unknown) error = %v, want ErrInvalidModeTransition", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("rejected mode reached hardware: %v", rec.calls)
	}
}

func TestResetEncoders_Sequence(t *testing.T) {
	a, b := &recordingMotor{}, &recordingMotor{}
	ma, mb := NewMotor("A", a), NewMotor("B", b)

	if err := ResetEncoders(context.Background(), []*Motor{ma, mb}); err != nil {
		t.Fatalf("ResetEncoders: %v", err)
	}

	want := []string{"mode:reset", "mode:run_using_encoder"}
	for name, rec := range map[string]*recordingMotor{"A": a, "B": b} {
		if !reflect.DeepEqual(rec.calls, want) {
			t.Errorf("motor %s calls = %v, want %v", name, rec.calls, want)
		}
	}
	for _, m := range []*Motor{ma, mb} {
		if !m.Referenced() || m.Mode() != hw.ModeRunUsingEncoder {
			t.Errorf("motor %s: referenced=%v mode=%s", m.Name(), m.Referenced(), m.Mode())
		}
	}
}

func TestResetEncoders_AllResetBeforeAnyRun(t *testing.T) {
	var log []string
	shared := &orderMotor{log: &log}
	ma, mb := NewMotor("A", shared.named("A")), NewMotor("B", shared.named("B"))

	if err := ResetEncoders(context.Background(), []*Motor{ma, mb}); err != nil {
		t.Fatalf("ResetEncoders: %v", err)
	}

	want := []string{"A:reset", "B:reset", "A:run_using_encoder", "B:run_using_encoder"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("order = %v, want %v", log, want)
	}
}

// orderMotor logs mode changes of several motors into one shared slice.
type orderMotor struct {
	recordingMotor
	log  *[]string
	name string
}

func (o *orderMotor) named(name string) *orderMotor {
	return &orderMotor{log: o.log, name: name}
}

func (o *orderMotor) SetMode(_ context.Context, mode hw.RunMode) error {
	*o.log = append(*o.log, o.name+":"+mode.String())
	return nil
}

func TestResetEncoders_HardwareFailure(t *testing.T) {
	rec := &recordingMotor{failOn: "mode:reset"}
	m := NewMotor("M", rec)

	err := ResetEncoders(context.Background(), []*Motor{m})
	if !errors.Is(err, errHardware) {
		t.Fatalf("error = %v, want hardware fault", err)
	}
	if m.Mode() != hw.ModeUnknown || m.Referenced() {
		t.Errorf("state changed on failure: mode=%s referenced=%v", m.Mode(), m.Referenced())
	}
}

func TestMotor_RunToPositionOrder(t *testing.T) {
	rec := &recordingMotor{}
	m := referencedMotor(t, rec)

	if err := m.RunToPosition(context.Background(), 20, 0.01); err != nil {
		t.Fatalf("RunToPosition: %v", err)
	}

	want := []string{"target:20", "power:0.01", "mode:run_to_position"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
	if m.Mode() != hw.ModeRunToPosition {
		t.Errorf("mode = %s, want run_to_position", m.Mode())
	}
}

func TestMotor_RetargetInRunToPosition(t *testing.T) {
	ctx := context.Background()
	rec := &recordingMotor{}
	m := referencedMotor(t, rec)

	if err := m.RunToPosition(ctx, 20, 0.5); err != nil {
		t.Fatalf("RunToPosition: %v", err)
	}
	rec.calls = nil

	// Retargeting needs no mode round-trip
	if err := m.RunToPosition(ctx, -20, 0.5); err != nil {
		t.Fatalf("RunToPosition again: %v", err)
	}
	want := []string{"target:-20", "power:0.5"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}

	rec.calls = nil
	if err := m.SetTargetPosition(ctx, 5); err != nil {
		t.Fatalf("SetTargetPosition: %v", err)
	}
	if !reflect.DeepEqual(rec.calls, []string{"target:5"}) {
		t.Errorf("calls = %v", rec.calls)
	}
}

func TestMotor_BackToEncoderKeepsReference(t *testing.T) {
	ctx := context.Background()
	m := referencedMotor(t, &recordingMotor{})

	if err := m.RunToPosition(ctx, 100, 0.5); err != nil {
		t.Fatalf("RunToPosition: %v", err)
	}
	if err := m.SetMode(ctx, hw.ModeRunUsingEncoder); err != nil {
		t.Fatalf("SetMode(run using encoder): %v", err)
	}
	if !m.Referenced() {
		t.Error("leaving run to position should keep the reference")
	}
	if err := m.SetMode(ctx, hw.ModeRunToPosition); err != nil {
		t.Errorf("SetMode(run to position) = %v", err)
	}
}

func TestMotor_HardwareErrorKeepsMode(t *testing.T) {
	rec := &recordingMotor{failOn: "mode:run_to_position"}
	m := referencedMotor(t, rec)

	err := m.RunToPosition(context.Background(), 10, 0.5)
	if !errors.Is(err, errHardware) {
		t.Fatalf("error = %v, want hardware fault", err)
	}
	if m.Mode() != hw.ModeRunUsingEncoder {
		t.Errorf("mode = %s after failed switch, want run_using_encoder", m.Mode())
	}
}

func TestMotor_CurrentPositionAnyMode(t *testing.T) {
	rec := &recordingMotor{current: 42}
	m := NewMotor("M", rec)

	pos, err := m.CurrentPosition(context.Background())
	if err != nil {
		t.Fatalf("CurrentPosition: %v", err)
	}
	if pos != 42 {
		t.Errorf("CurrentPosition = %d, want 42", pos)
	}
}

package robot

import (
	"errors"
	"math"
	"testing"
)

func TestServoBounds_Scale(t *testing.T) {
	tests := []struct {
		bounds   ServoBounds
		norm     float64
		expected float64
	}{
		{ServoBounds{0.0, 0.21}, 0.0, 0.0},  // lower
		{ServoBounds{0.0, 0.21}, 1.0, 0.21}, // upper
		{ServoBounds{0.15, 0.5}, 0.5, 0.325},
		{ServoBounds{0.8, 0.2}, 0.0, 0.8},   // inverted
		{ServoBounds{0.8, 0.2}, 1.0, 0.2},   // inverted
		{ServoBounds{0.8, 0.2}, 0.25, 0.65}, // inverted
		{ServoBounds{0.0, 0.5}, 1.5, 0.75},  // extrapolates above
		{ServoBounds{0.0, 0.5}, -1.0, -0.5}, // extrapolates below
	}

	for _, tt := range tests {
		got := tt.bounds.Scale(tt.norm)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("%+v.Scale(%f) = %f, want %f", tt.bounds, tt.norm, got, tt.expected)
		}
	}
}

func TestServoBounds_ScaleMatchesInterpolation(t *testing.T) {
	bounds := []ServoBounds{{0, 1}, {0.25, 0.75}, {1, 0}, {-3.5, 2.25}, {0.4, 0.4}, {0, 0.21}}
	norms := []float64{-2, -0.5, 0, 0.1, 0.33, 0.5, 0.9, 1, 3}

	for _, b := range bounds {
		for _, p := range norms {
			want := b.Lower + p*(b.Upper-b.Lower)
			if got := b.Scale(p); got != want {
				t.Errorf("%+v.Scale(%f) = %v, want exactly %v", b, p, got, want)
			}
		}
		if got := b.Scale(0); got != b.Lower {
			t.Errorf("%+v.Scale(0) = %v, want lower %v", b, got, b.Lower)
		}
		if got := b.Scale(1); got != b.Upper {
			t.Errorf("%+v.Scale(1) = %v, want upper %v", b, got, b.Upper)
		}
	}
}

func TestMotorBounds_Scale(t *testing.T) {
	tests := []struct {
		bounds   MotorBounds
		norm     float64
		expected int32
	}{
		{MotorBounds{-20, 20}, 0.0, -20},
		{MotorBounds{-20, 20}, 1.0, 20},
		{MotorBounds{-20, 20}, 0.5, 0},
		{MotorBounds{0, 1000}, 0.0, 0},
		{MotorBounds{0, 1000}, 1.0, 1000},
		{MotorBounds{0, 1000}, 0.3333, 333},   // truncated
		{MotorBounds{0, 1000}, 0.9999, 999},   // truncated, not rounded
		{MotorBounds{-20, 20}, 0.49, 0},       // -0.4 truncates toward zero
		{MotorBounds{0, -10}, 0.25, -2},       // inverted, -2.5 truncates toward zero
		{MotorBounds{1000, 0}, 1.0, 0},        // inverted
		{MotorBounds{0, 1000}, 1.5, 1500},     // extrapolates
		{MotorBounds{0, 1000}, -0.2555, -255}, // extrapolates, truncated toward zero
	}

	for _, tt := range tests {
		got := tt.bounds.Scale(tt.norm)
		if got != tt.expected {
			t.Errorf("%+v.Scale(%f) = %d, want %d", tt.bounds, tt.norm, got, tt.expected)
		}
	}
}

func TestMotorBounds_ScaleEndpoints(t *testing.T) {
	for _, b := range []MotorBounds{{0, 1000}, {-20, 20}, {20, -20}, {7, 7}, {-1000, -1}} {
		if got := b.Scale(0); got != b.Lower {
			t.Errorf("%+v.Scale(0) = %d, want %d", b, got, b.Lower)
		}
		if got := b.Scale(1); got != b.Upper {
			t.Errorf("%+v.Scale(1) = %d, want %d", b, got, b.Upper)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterServo(ClawServoRight, ServoBounds{0, 0.21}); err != nil {
		t.Fatalf("RegisterServo: %v", err)
	}
	if err := r.RegisterMotor(FrontArm, MotorBounds{0, 1000}); err != nil {
		t.Fatalf("RegisterMotor: %v", err)
	}

	sb, err := r.Servo(ClawServoRight)
	if err != nil {
		t.Fatalf("Servo: %v", err)
	}
	if sb.Upper != 0.21 {
		t.Errorf("Servo returned %+v", sb)
	}

	mb, err := r.Motor(FrontArm)
	if err != nil {
		t.Fatalf("Motor: %v", err)
	}
	if mb.Upper != 1000 {
		t.Errorf("Motor returned %+v", mb)
	}

	// Kinds are kept apart
	if _, err := r.Motor(ClawServoRight); !errors.Is(err, ErrUnconfiguredActuator) {
		t.Errorf("Motor(servo name) error = %v, want ErrUnconfiguredActuator", err)
	}
	if _, err := r.Servo("Nope"); !errors.Is(err, ErrUnconfiguredActuator) {
		t.Errorf("Servo(unknown) error = %v, want ErrUnconfiguredActuator", err)
	}
}

func TestRegistry_Sealed(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterMotor(FrontArm, MotorBounds{0, 1000}); err != nil {
		t.Fatalf("RegisterMotor: %v", err)
	}
	r.Seal()
	if !r.Sealed() {
		t.Fatal("Sealed() = false after Seal")
	}

	if err := r.RegisterMotor(FrontArm, MotorBounds{0, 5}); !errors.Is(err, ErrRegistrySealed) {
		t.Errorf("RegisterMotor after Seal error = %v, want ErrRegistrySealed", err)
	}
	if err := r.RegisterServo(LeftArm, ServoBounds{0, 1}); !errors.Is(err, ErrRegistrySealed) {
		t.Errorf("RegisterServo after Seal error = %v, want ErrRegistrySealed", err)
	}

	// Existing record unchanged
	b, err := r.Motor(FrontArm)
	if err != nil || b.Upper != 1000 {
		t.Errorf("Motor after rejected register = %+v, %v", b, err)
	}
}

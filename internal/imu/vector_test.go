package imu

import (
	"errors"
	"math"
	"testing"
)

func TestCross_Basis(t *testing.T) {
	got, err := Cross(NewVector(1, 0, 0), NewVector(0, 1, 0))
	if err != nil {
		t.Fatalf("Cross() error: %v", err)
	}
	want := NewVector(0, 0, 1)
	if got != want {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}

func TestCross_AntiCommutes(t *testing.T) {
	a := NewVector(1, 2, 3)
	b := NewVector(-4, 5, 0.5)
	ab, err := Cross(a, b)
	if err != nil {
		t.Fatalf("Cross() error: %v", err)
	}
	ba, err := Cross(b, a)
	if err != nil {
		t.Fatalf("Cross() error: %v", err)
	}
	if ab.X.Value != -ba.X.Value || ab.Y.Value != -ba.Y.Value || ab.Z.Value != -ba.Z.Value {
		t.Fatalf("ab=%+v ba=%+v want negation", ab, ba)
	}
}

func TestDot(t *testing.T) {
	got, err := Dot(NewVector(1, 2, 3), NewVector(4, -5, 6))
	if err != nil {
		t.Fatalf("Dot() error: %v", err)
	}
	if got != 12 {
		t.Fatalf("got=%v want=12", got)
	}
}

func TestDot_MissingComponentErrors(t *testing.T) {
	partial := Vector{X: Val(1), Z: Val(3)}
	if _, err := Dot(partial, NewVector(1, 1, 1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v want ErrInvalidInput", err)
	}
	if _, err := Cross(NewVector(1, 1, 1), partial); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v want ErrInvalidInput", err)
	}
}

func TestDot_NaNComponentErrors(t *testing.T) {
	v := NewVector(1, math.NaN(), 3)
	if _, err := Dot(v, v); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v want ErrInvalidInput", err)
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(NewVector(3, 0, 4))
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if math.Abs(got.X.Value-0.6) > 1e-12 || got.Y.Value != 0 || math.Abs(got.Z.Value-0.8) > 1e-12 {
		t.Fatalf("got=%+v want {0.6 0 0.8}", got)
	}
}

func TestNormalize_ZeroVectorErrors(t *testing.T) {
	if _, err := Normalize(NewVector(0, 0, 0)); !errors.Is(err, ErrDegenerateVector) {
		t.Fatalf("err=%v want ErrDegenerateVector", err)
	}
}

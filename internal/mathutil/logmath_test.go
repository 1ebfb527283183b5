package mathutil

import (
	"math"
	"testing"
)

func TestLogAdd(t *testing.T) {
	// log(exp(log(2)) + exp(log(3))) = log(5)
	a := math.Log(2)
	b := math.Log(3)
	got := LogAdd(a, b)
	want := math.Log(5)
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("LogAdd(log(2), log(3)) = %f, want %f", got, want)
	}
}

func TestLogAddWithLogZero(t *testing.T) {
	a := math.Log(5)
	if got := LogAdd(LogZero, a); math.Abs(got-a) > 1e-10 {
		t.Errorf("LogAdd(LogZero, %f) = %f, want %f", a, got, a)
	}
	if got := LogAdd(a, LogZero); math.Abs(got-a) > 1e-10 {
		t.Errorf("LogAdd(%f, LogZero) = %f, want %f", a, got, a)
	}
}

func TestLog10(t *testing.T) {
	if got := Log10(100); math.Abs(got-2) > 1e-12 {
		t.Errorf("Log10(100) = %f, want 2", got)
	}
	if got := Log10(0); got != LogZero {
		t.Errorf("Log10(0) = %f, want LogZero", got)
	}
}

func TestLerp(t *testing.T) {
	if got := Lerp(2, 4, 1); got != 2 {
		t.Errorf("Lerp(2, 4, 1) = %f, want 2", got)
	}
	if got := Lerp(2, 4, 0); got != 4 {
		t.Errorf("Lerp(2, 4, 0) = %f, want 4", got)
	}
	if got := Lerp(2, 4, 0.5); math.Abs(got-3) > 1e-12 {
		t.Errorf("Lerp(2, 4, 0.5) = %f, want 3", got)
	}
}

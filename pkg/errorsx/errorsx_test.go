package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonSynthesis)
	if Reason(err) != ReasonSynthesis {
		t.Fatalf("expected reason %s, got %s", ReasonSynthesis, Reason(err))
	}
	if !HasReason(err, ReasonSynthesis) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonTranscode)
	second := Wrap(first, ReasonDelivery)
	if Reason(second) != ReasonTranscode {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ReasonDelivery) != nil {
		t.Fatalf("expected nil")
	}
	if Reason(nil) != ReasonUnknown {
		t.Fatalf("expected unknown reason for nil error")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

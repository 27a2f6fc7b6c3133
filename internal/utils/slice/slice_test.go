package slice

import "testing"

func TestContains(t *testing.T) {
	xs := []string{"debug", "info", "warn", "error"}
	if !Contains(xs, "warn") {
		t.Errorf("expected Contains to find %q in %v", "warn", xs)
	}
	if Contains(xs, "trace") {
		t.Errorf("did not expect Contains to find %q in %v", "trace", xs)
	}
	if Contains(nil, "anything") {
		t.Errorf("expected Contains on a nil slice to report false")
	}
}

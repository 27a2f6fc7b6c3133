package version

import "testing"

func TestEncodeOrdering(t *testing.T) {
	cases := []struct{ lesser, greater string }{
		{"1.0", "1.1"},
		{"1.0-1", "1.0-2"},
		{"1.0", "1.0-2"},
		{"0.9", "1.0"},
		{"1.0~rc1", "1.0"},
		{"1.0~~", "1.0~"},
		{"1:1.0", "2:0.1"},
		{"1.0a", "1.0b"},
		{"1.0.1", "1.0.10"},
		{"1.0.9", "1.0.10"},
	}
	for _, c := range cases {
		if !Less(c.lesser, c.greater) {
			t.Errorf("expected Encode(%q) < Encode(%q), got %q >= %q",
				c.lesser, c.greater, Encode(c.lesser), Encode(c.greater))
		}
		if Less(c.greater, c.lesser) {
			t.Errorf("expected Encode(%q) >= Encode(%q)", c.greater, c.lesser)
		}
	}
}

func TestEncodeEmptyEpochEqualsExplicitZero(t *testing.T) {
	if Encode("1.0-1") != Encode("0:1.0-1") {
		t.Fatalf("empty epoch should equal explicit 0: got %q vs %q",
			Encode("1.0-1"), Encode("0:1.0-1"))
	}
}

func TestEncodeIdempotent(t *testing.T) {
	v := "3:1.2.3-4ubuntu5~20.04.1"
	if Encode(v) != Encode(v) {
		t.Fatalf("Encode should be deterministic")
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, op, b string
		want     bool
	}{
		{"1.0", "<<", "1.1", true},
		{"1.0", ">>", "1.1", false},
		{"1.0", "=", "1.0", true},
		{"1.0", "<=", "1.0", true},
		{"1.0", ">=", "1.0", true},
		{"1.0", "", "999", true},
	}
	for _, c := range cases {
		got, err := Compare(c.a, c.op, c.b)
		if err != nil {
			t.Fatalf("Compare(%q,%q,%q) error: %v", c.a, c.op, c.b, err)
		}
		if got != c.want {
			t.Errorf("Compare(%q,%q,%q) = %v, want %v", c.a, c.op, c.b, got, c.want)
		}
	}
}

func TestCompareUnknownOperator(t *testing.T) {
	if _, err := Compare("1.0", "!!", "1.1"); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}

func TestNoRevisionDefaultsToOne(t *testing.T) {
	if Encode("1.0") != Encode("1.0-1") {
		t.Fatalf("version without revision should default to revision 1: %q vs %q",
			Encode("1.0"), Encode("1.0-1"))
	}
}

func TestParseEpoch(t *testing.T) {
	epoch, err := ParseEpoch("3:1.2.3")
	if err != nil || epoch != 3 {
		t.Fatalf("ParseEpoch(3:1.2.3) = %d, %v; want 3, nil", epoch, err)
	}
	epoch, err = ParseEpoch("1.2.3")
	if err != nil || epoch != 0 {
		t.Fatalf("ParseEpoch(1.2.3) = %d, %v; want 0, nil", epoch, err)
	}
}

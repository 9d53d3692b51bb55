package main

import "testing"

func TestParseAxes(t *testing.T) {
	axes, err := parseAxes([]string{"base_spread_prob=0.1, 0.2,0.3", "ignition_prob=0"})
	if err != nil {
		t.Fatal(err)
	}
	if len(axes) != 2 || len(axes[0].Values) != 3 || axes[0].Values[1] != 0.2 {
		t.Fatalf("axes = %+v", axes)
	}
	for _, bad := range []string{"noequals", "=1,2", "k=1,x"} {
		if _, err := parseAxes([]string{bad}); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

func TestParseRanges(t *testing.T) {
	rs, err := parseRanges([]string{"extinguish_prob=0.01:0.2"})
	if err != nil {
		t.Fatal(err)
	}
	if r := rs["extinguish_prob"]; r.Min != 0.01 || r.Max != 0.2 {
		t.Fatalf("range = %+v", r)
	}
	for _, bad := range []string{"k=1", "k=2:1", "k=a:1", "=0:1"} {
		if _, err := parseRanges([]string{bad}); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

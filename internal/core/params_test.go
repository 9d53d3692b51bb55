package core

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParameterControl(t *testing.T) {
	Convey("Given panel controls", t, func() {
		prob := ParameterControl{Key: "p", Type: ParamTypeFloat, Step: 0.05, HasMin: true, HasMax: true, Max: 1}
		timer := ParameterControl{Key: "t", Type: ParamTypeInt, Step: 1, HasMin: true, Min: 1, HasMax: true, Max: 20}
		nb := ParameterControl{Key: "n", Type: ParamTypeString, Choices: []string{"moore", "von_neumann"}}

		Convey("numeric values move by one step", func() {
			v, ok := prob.Nudge(0.5, 1)
			So(ok, ShouldBeTrue)
			So(v, ShouldAlmostEqual, 0.55)
			v, ok = timer.Nudge(3, -1)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 2)
		})

		Convey("numeric values stop at the bounds", func() {
			v, ok := prob.Nudge(0.98, 1)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1)
			_, ok = prob.Nudge(1, 1)
			So(ok, ShouldBeFalse)
			_, ok = timer.Nudge(1, -1)
			So(ok, ShouldBeFalse)
			So(timer.Clamp(7.6), ShouldEqual, 8)
		})

		Convey("string controls cycle and wrap", func() {
			_, ok := nb.Nudge(0, 1)
			So(ok, ShouldBeFalse)
			v, ok := nb.Cycle("moore", 1)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "von_neumann")
			v, _ = nb.Cycle("von_neumann", 1)
			So(v, ShouldEqual, "moore")
			v, _ = nb.Cycle("moore", -1)
			So(v, ShouldEqual, "von_neumann")
			v, ok = nb.Cycle("hex", 1)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "moore")
			_, ok = prob.Cycle("moore", 1)
			So(ok, ShouldBeFalse)
		})

		Convey("values format by step precision", func() {
			So(prob.Format(0.15), ShouldEqual, "0.15")
			So(timer.Format(4), ShouldEqual, "4")
			So(ParameterControl{Type: ParamTypeFloat, Step: 0.0005}.Format(0.001), ShouldEqual, "0.0010")
		})
	})
}

func TestParameterSnapshotLookup(t *testing.T) {
	s := ParameterSnapshot{Groups: []ParameterGroup{
		{Name: "a", Params: []Parameter{{Key: "x", Value: "1"}}},
		{Name: "b", Params: []Parameter{{Key: "y", Value: "moore"}}},
	}}
	if p, ok := s.Lookup("y"); !ok || p.Value != "moore" {
		t.Fatalf("Lookup(y) = %+v, %v", p, ok)
	}
	if _, ok := s.Lookup("z"); ok {
		t.Fatal("found a missing key")
	}
	if v := s.Values(); len(v) != 2 || v["x"] != "1" {
		t.Fatalf("Values() = %v", v)
	}
}

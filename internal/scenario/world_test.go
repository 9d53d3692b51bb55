package scenario

import (
	"slices"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestScenarioWorld(t *testing.T) {
	Convey("Given the ridge scenario as a viewer world", t, func() {
		s, err := Load("testdata/ridge.yaml")
		So(err, ShouldBeNil)
		w, err := s.World()
		So(err, ShouldBeNil)

		So(w.Size().W, ShouldEqual, s.Cols)
		So(w.Size().H, ShouldEqual, s.Rows)
		So(len(w.ElevationField()), ShouldEqual, s.Rows*s.Cols)

		Convey("stepping goes through the scenario schedule", func() {
			for i := 0; i < 12; i++ {
				w.Step()
			}
			So(w.Stats().Step, ShouldEqual, 12)
			So(len(w.Engine().IgnitionSources()), ShouldBeLessThanOrEqualTo, 2)
			_, _, ok := w.WindVector()
			So(ok, ShouldBeTrue)
		})

		Convey("reset replays the same run", func() {
			for i := 0; i < 8; i++ {
				w.Step()
			}
			first := slices.Clone(w.Cells())
			w.Reset(0)
			So(w.Stats().Step, ShouldEqual, 0)
			for i := 0; i < 8; i++ {
				w.Step()
			}
			So(w.Cells(), ShouldResemble, first)
		})
	})
}

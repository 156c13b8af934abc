package assign_test

import (
	"testing"

	"github.com/okian/fpti/internal/domain/assign"
	"github.com/okian/fpti/internal/domain/axis"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func TestAssign(t *testing.T) {
	Convey("Given axis outcomes and thresholds", t, func() {
		var thresholds [axis.Count]float64

		Convey("When every scalar clears its threshold", func() {
			var outcomes [axis.Count]assign.Outcome
			for _, a := range axis.All() {
				outcomes[a] = assign.Outcome{Scalar: 0.8, Coverage: 1.0}
			}
			asg := assign.Assign(outcomes, thresholds)

			Convey("Then every axis should take the high letter", func() {
				So(asg.Code, ShouldEqual, "SWIN")
			})

			Convey("And every call should be determinate with margin and confidence", func() {
				for _, a := range axis.All() {
					call := asg.Calls[a]
					So(call.Determinate, ShouldBeTrue)
					So(call.Margin, ShouldAlmostEqual, 0.8, tolerance)
					So(call.Confidence, ShouldBeGreaterThan, 0.5)
					So(call.Confidence, ShouldBeLessThan, 1.0)
				}
			})
		})

		Convey("When every scalar falls below its threshold", func() {
			var outcomes [axis.Count]assign.Outcome
			for _, a := range axis.All() {
				outcomes[a] = assign.Outcome{Scalar: -0.4, Coverage: 1.0}
			}
			asg := assign.Assign(outcomes, thresholds)

			Convey("Then every axis should take the low letter", func() {
				So(asg.Code, ShouldEqual, "FPCO")
			})
		})

		Convey("When a scalar sits exactly on the threshold", func() {
			var outcomes [axis.Count]assign.Outcome
			for _, a := range axis.All() {
				outcomes[a] = assign.Outcome{Scalar: 0, Coverage: 1.0}
			}
			asg := assign.Assign(outcomes, thresholds)

			Convey("Then the tie should resolve to the high letter", func() {
				So(asg.Code, ShouldEqual, "SWIN")
			})

			Convey("And the confidence should bottom out at one half", func() {
				for _, a := range axis.All() {
					So(asg.Calls[a].Confidence, ShouldAlmostEqual, 0.5, tolerance)
				}
			})
		})

		Convey("When one axis is unscoreable", func() {
			var outcomes [axis.Count]assign.Outcome
			for _, a := range axis.All() {
				outcomes[a] = assign.Outcome{Scalar: 1.0, Coverage: 1.0}
			}
			outcomes[axis.WorkEthic] = assign.Outcome{Coverage: 0.3, Unscoreable: true}
			asg := assign.Assign(outcomes, thresholds)

			Convey("Then its position should carry the indeterminate marker", func() {
				So(asg.Code, ShouldEqual, "S?IN")
			})

			Convey("And its call should be indeterminate with no confidence", func() {
				call := asg.Calls[axis.WorkEthic]
				So(call.Determinate, ShouldBeFalse)
				So(call.Letter, ShouldEqual, axis.Indeterminate)
				So(call.Confidence, ShouldAlmostEqual, 0.0, tolerance)
			})
		})

		Convey("When thresholds vary per axis", func() {
			var outcomes [axis.Count]assign.Outcome
			for _, a := range axis.All() {
				outcomes[a] = assign.Outcome{Scalar: 0.5, Coverage: 1.0}
			}
			custom := [axis.Count]float64{0.6, 0.4, 0.5, -0.2}
			asg := assign.Assign(outcomes, custom)

			Convey("Then each axis should be judged against its own threshold", func() {
				So(asg.Code, ShouldEqual, "FWIN")
			})
		})

		Convey("When confidence is compared across margins", func() {
			near := assign.Assign([axis.Count]assign.Outcome{
				{Scalar: 0.1}, {Scalar: 0.1}, {Scalar: 0.1}, {Scalar: 0.1},
			}, thresholds)
			far := assign.Assign([axis.Count]assign.Outcome{
				{Scalar: 2.0}, {Scalar: 2.0}, {Scalar: 2.0}, {Scalar: 2.0},
			}, thresholds)

			Convey("Then wider margins should be more confident", func() {
				So(far.Calls[axis.Mentality].Confidence, ShouldBeGreaterThan, near.Calls[axis.Mentality].Confidence)
			})

			Convey("And mirrored margins should be equally confident", func() {
				neg := assign.Assign([axis.Count]assign.Outcome{
					{Scalar: -2.0}, {Scalar: -2.0}, {Scalar: -2.0}, {Scalar: -2.0},
				}, thresholds)
				So(neg.Calls[axis.Mentality].Confidence, ShouldAlmostEqual,
					far.Calls[axis.Mentality].Confidence, tolerance)
			})
		})
	})
}

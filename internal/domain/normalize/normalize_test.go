package normalize_test

import (
	"testing"

	"github.com/okian/fpti/internal/domain/model"
	"github.com/okian/fpti/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func record(id, pos string, minutes float64, stats map[string]float64) model.RawStatRecord {
	return model.RawStatRecord{PlayerID: id, Position: pos, Minutes: minutes, Stats: stats}
}

func TestPositionGroup(t *testing.T) {
	Convey("Given raw position strings", t, func() {
		Convey("When folding them into coarse groups", func() {
			cases := map[string]string{
				"FW":     normalize.GroupForward,
				"F S":    normalize.GroupForward,
				"Sub":    normalize.GroupForward,
				"M(C)":   normalize.GroupMidfielder,
				"M(CLR)": normalize.GroupMidfielder,
				"D(C)":   normalize.GroupDefender,
				"DC":     normalize.GroupDefender,
				"GK":     normalize.GroupKeeper,
				" fw ":   normalize.GroupForward,
				"\tmc\n": normalize.GroupMidfielder,
				"":       normalize.GroupUnknown,
				" \t ":   normalize.GroupUnknown,
				"???":    normalize.GroupUnknown,
			}
			Convey("Then each should land in its group", func() {
				for pos, want := range cases {
					So(normalize.PositionGroup(pos), ShouldEqual, want)
				}
			})
		})
	})
}

func TestPopulation(t *testing.T) {
	Convey("Given a set of player records", t, func() {
		records := []model.RawStatRecord{
			record("p1", "FW", 1800, map[string]float64{"xg": 10}),
			record("p2", "FW", 2700, map[string]float64{"xg": 30}),
			record("p3", "FW", 900, map[string]float64{"xg": 5}),
		}

		Convey("When building a population with a minutes floor", func() {
			pop := normalize.NewPopulation(records,
				normalize.WithPopulationMinMinutes(1500),
			)

			Convey("Then only eligible records should contribute", func() {
				So(pop.Size(), ShouldEqual, 2)
			})

			Convey("And parameters should be per-90 rates", func() {
				// p1: 10/1800*90 = 0.5, p2: 30/2700*90 = 1.0
				params, ok := pop.Params("xg_p90")
				So(ok, ShouldBeTrue)
				So(params.Mean, ShouldAlmostEqual, 0.75, tolerance)
				So(params.StdDev, ShouldAlmostEqual, 0.25, tolerance)
				So(params.Count, ShouldEqual, 2)
			})
		})

		Convey("When scoping a population to a position group", func() {
			mixed := append(records,
				record("d1", "D(C)", 3000, map[string]float64{"xg": 1}),
			)
			pop := normalize.NewPopulation(mixed,
				normalize.WithPositionGroup(normalize.GroupDefender),
			)

			Convey("Then only the group's records should contribute", func() {
				So(pop.Size(), ShouldEqual, 1)
				So(pop.Group(), ShouldEqual, normalize.GroupDefender)
			})
		})

		Convey("When snapshotting and restoring", func() {
			pop := normalize.NewPopulation(records, normalize.WithTag("2024-epl"))
			restored := normalize.Restore(pop.Snapshot())

			Convey("Then the restored population should be equivalent", func() {
				So(restored.Tag(), ShouldEqual, "2024-epl")
				So(restored.Size(), ShouldEqual, pop.Size())
				So(restored.Checksum(), ShouldEqual, pop.Checksum())
			})
		})

		Convey("When comparing checksums", func() {
			a := normalize.NewPopulation(records, normalize.WithTag("t"))
			b := normalize.NewPopulation(records, normalize.WithTag("t"))
			c := normalize.NewPopulation(records[:2], normalize.WithTag("t"))

			Convey("Then identical inputs should hash identically", func() {
				So(a.Checksum(), ShouldEqual, b.Checksum())
			})

			Convey("And different inputs should hash differently", func() {
				So(a.Checksum(), ShouldNotEqual, c.Checksum())
			})
		})
	})
}

func TestNormalizer_Normalize(t *testing.T) {
	Convey("Given a normalizer and a reference population", t, func() {
		pop := normalize.NewPopulation([]model.RawStatRecord{
			record("r1", "FW", 900, map[string]float64{"xg": 5, "tackles": 10}),
			record("r2", "FW", 900, map[string]float64{"xg": 15, "tackles": 10}),
		})
		// xg_p90: mean 1.0, std 0.5; tackles_per_90: mean 1.0, std 0
		n := normalize.NewNormalizer(normalize.WithMinMinutes(1500))

		Convey("When normalizing an eligible record", func() {
			fv, err := n.Normalize(record("p1", "FW", 1800, map[string]float64{
				"xg":      30, // 1.5 per 90
				"tackles": 40, // 2.0 per 90
			}), pop)

			Convey("Then stats should become z-scores of per-90 rates", func() {
				So(err, ShouldBeNil)
				So(fv["xg_p90"], ShouldAlmostEqual, 1.0, tolerance)
			})

			Convey("And zero-variance features should normalize to zero", func() {
				So(err, ShouldBeNil)
				So(fv["tackles_per_90"], ShouldAlmostEqual, 0.0, tolerance)
			})
		})

		Convey("When a stat is absent from the record", func() {
			fv, err := n.Normalize(record("p2", "FW", 1800, map[string]float64{
				"xg": 20,
			}), pop)

			Convey("Then the feature should stay absent, not default to zero", func() {
				So(err, ShouldBeNil)
				_, present := fv["tackles_per_90"]
				So(present, ShouldBeFalse)
			})
		})

		Convey("When a feature has no population parameters", func() {
			fv, err := n.Normalize(record("p3", "FW", 1800, map[string]float64{
				"xg":       20,
				"dribbles": 50,
			}), pop)

			Convey("Then the unparameterized feature should be skipped", func() {
				So(err, ShouldBeNil)
				_, present := fv["dribbles"]
				So(present, ShouldBeFalse)
			})
		})

		Convey("When a record is below the minutes floor", func() {
			_, err := n.Normalize(record("p4", "FW", 1200, map[string]float64{"xg": 10}), pop)

			Convey("Then it should fail with ErrInsufficientMinutes", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, normalize.ErrInsufficientMinutes)
			})
		})

		Convey("When a record has zero minutes", func() {
			zero := normalize.NewNormalizer()
			_, err := zero.Normalize(record("p5", "FW", 0, map[string]float64{"xg": 10}), pop)

			Convey("Then it should fail with ErrInsufficientMinutes", func() {
				So(err, ShouldWrap, normalize.ErrInsufficientMinutes)
			})
		})

		Convey("When a record is a goalkeeper", func() {
			_, err := n.Normalize(record("gk", "GK", 3000, map[string]float64{"xg": 1}), pop)

			Convey("Then it should fail with ErrIneligiblePosition", func() {
				So(err, ShouldWrap, normalize.ErrIneligiblePosition)
			})
		})

		Convey("When a record has an unknown position", func() {
			_, err := n.Normalize(record("u", "???", 3000, map[string]float64{"xg": 1}), pop)

			Convey("Then it should fail with ErrIneligiblePosition", func() {
				So(err, ShouldWrap, normalize.ErrIneligiblePosition)
			})
		})
	})
}

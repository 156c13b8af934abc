package service_test

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"testing"
	"time"

	service "github.com/okian/fpti/internal/app"
	"github.com/okian/fpti/internal/calibration"
	"github.com/okian/fpti/internal/domain/model"
	"github.com/okian/fpti/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logger for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func eligibleRecord(id string, minutes float64, xg, xa, tackles, fouls float64) model.RawStatRecord {
	return model.RawStatRecord{
		PlayerID: id,
		Position: "FW",
		Minutes:  minutes,
		Stats: map[string]float64{
			"xg":              xg,
			"npxg":            xg * 0.9,
			"shots":           xg * 8,
			"xa":              xa,
			"key_passes":      xa * 6,
			"xg_buildup":      xa * 2,
			"xg_chain":        xg + xa,
			"tackles":         tackles,
			"interceptions":   tackles * 0.8,
			"clearances":      tackles * 1.1,
			"fouls_committed": fouls,
			"yellow_cards":    fouls * 0.2,
			"red_cards":       fouls * 0.02,
		},
	}
}

func testRecords() []model.RawStatRecord {
	return []model.RawStatRecord{
		eligibleRecord("striker", 2800, 18, 3, 20, 30),
		eligibleRecord("creator", 2600, 5, 12, 30, 25),
		eligibleRecord("destroyer", 3000, 2, 4, 95, 70),
	}
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestServiceClassify(t *testing.T) {
	Convey("Given a started classification service", t, func() {
		ctx := context.Background()
		svc := startService(service.WithWorkerCount(4), service.WithQueueSize(64))
		defer svc.Stop()

		Convey("When classifying a batch against the default profile", func() {
			records := testRecords()
			reports, err := svc.Classify(ctx, "v1", "", records)

			Convey("Then every record should yield exactly one report, in input order", func() {
				So(err, ShouldBeNil)
				So(len(reports), ShouldEqual, len(records))
				for i, rec := range records {
					So(reports[i].PlayerID, ShouldEqual, rec.PlayerID)
				}
			})

			Convey("And every report should be tagged with the profile version", func() {
				So(err, ShouldBeNil)
				for _, rep := range reports {
					So(rep.ProfileVersion, ShouldEqual, "v1")
					So(len(rep.Archetype), ShouldEqual, 4)
				}
			})
		})

		Convey("When classifying the same batch twice", func() {
			records := testRecords()
			first, err1 := svc.Classify(ctx, "v1", "", records)
			second, err2 := svc.Classify(ctx, "v1", "", records)

			Convey("Then the results should be byte-identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				ja, err := json.Marshal(first)
				So(err, ShouldBeNil)
				jb, err := json.Marshal(second)
				So(err, ShouldBeNil)
				So(string(ja), ShouldEqual, string(jb))
			})
		})

		Convey("When a record falls below the minutes floor", func() {
			records := append(testRecords(), eligibleRecord("fringe", 400, 2, 1, 5, 4))
			reports, err := svc.Classify(ctx, "v1", "", records)

			Convey("Then it should stay in the output as an ineligible report", func() {
				So(err, ShouldBeNil)
				So(len(reports), ShouldEqual, 4)
				So(reports[3].PlayerID, ShouldEqual, "fringe")
				So(reports[3].Verdict, ShouldEqual, model.VerdictIneligible)
				So(reports[3].IneligibleReason, ShouldEqual, "insufficient_minutes")
				So(reports[3].Archetype, ShouldEqual, "????")
			})
		})

		Convey("When a record is a goalkeeper", func() {
			gk := eligibleRecord("keeper", 3000, 0.1, 0.2, 5, 10)
			gk.Position = "GK"
			reports, err := svc.Classify(ctx, "v1", "", append(testRecords(), gk))

			Convey("Then it should be reported ineligible by position", func() {
				So(err, ShouldBeNil)
				So(reports[3].Verdict, ShouldEqual, model.VerdictIneligible)
				So(reports[3].IneligibleReason, ShouldEqual, "ineligible_position")
			})
		})

		Convey("When the profile version is omitted", func() {
			reports, err := svc.Classify(ctx, "", "", testRecords())

			Convey("Then the configured default profile should be used", func() {
				So(err, ShouldBeNil)
				So(reports[0].ProfileVersion, ShouldEqual, "v1")
			})
		})

		Convey("When the profile version is unknown", func() {
			_, err := svc.Classify(ctx, "v99", "", testRecords())

			Convey("Then the whole batch should fail before any work", func() {
				So(err, ShouldWrap, calibration.ErrProfileNotFound)
			})
		})

		Convey("When the batch is empty", func() {
			_, err := svc.Classify(ctx, "v1", "", nil)

			Convey("Then it should fail with ErrNoRecords", func() {
				So(err, ShouldWrap, service.ErrNoRecords)
			})
		})

		Convey("When the population tag is unknown", func() {
			_, err := svc.Classify(ctx, "v1", "nowhere", testRecords())

			Convey("Then the batch should fail with ErrPopulationNotFound", func() {
				So(err, ShouldWrap, service.ErrPopulationNotFound)
			})
		})
	})

	Convey("Given a service with a batch size cap", t, func() {
		ctx := context.Background()
		svc := startService(service.WithMaxBatchRecords(2))
		defer svc.Stop()

		Convey("When a batch exceeds the cap", func() {
			_, err := svc.Classify(ctx, "v1", "", testRecords())

			Convey("Then it should fail with ErrBatchTooLarge", func() {
				So(err, ShouldWrap, service.ErrBatchTooLarge)
			})
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("When classifying", func() {
			_, err := svc.Classify(context.Background(), "v1", "", testRecords())

			Convey("Then it should fail with ErrNotStarted", func() {
				So(err, ShouldWrap, service.ErrNotStarted)
			})
		})
	})
}

func TestServiceAsyncBatches(t *testing.T) {
	Convey("Given a started classification service", t, func() {
		ctx := context.Background()
		svc := startService(service.WithWorkerCount(4))
		defer svc.Stop()

		Convey("When starting an asynchronous batch", func() {
			id, err := svc.StartBatch(ctx, "v1", "", testRecords())
			So(err, ShouldBeNil)
			So(id, ShouldNotBeEmpty)

			Convey("Then the batch should eventually complete with its reports", func() {
				var snap service.BatchSnapshot
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					snap, err = svc.Batch(ctx, id)
					So(err, ShouldBeNil)
					if snap.Status == service.BatchComplete {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(snap.Status, ShouldEqual, service.BatchComplete)
				So(snap.Total, ShouldEqual, 3)
				So(snap.Completed, ShouldEqual, 3)
				So(len(snap.Reports), ShouldEqual, 3)
				So(snap.Reports[0].PlayerID, ShouldEqual, "striker")
			})
		})

		Convey("When asking for an unknown batch", func() {
			_, err := svc.Batch(ctx, "no-such-batch")

			Convey("Then it should fail with ErrBatchNotFound", func() {
				So(err, ShouldWrap, service.ErrBatchNotFound)
			})
		})
	})

	Convey("Given a service with a tiny task queue", t, func() {
		ctx := context.Background()
		svc := startService(service.WithQueueSize(1))
		defer svc.Stop()

		Convey("When an async batch exceeds the free queue capacity", func() {
			_, err := svc.StartBatch(ctx, "v1", "", testRecords())

			Convey("Then it should be rejected with ErrBackpressure", func() {
				So(err, ShouldWrap, service.ErrBackpressure)
			})
		})
	})
}

func TestServiceProfilesAndPopulations(t *testing.T) {
	Convey("Given a started classification service", t, func() {
		ctx := context.Background()
		svc := startService()
		defer svc.Stop()

		Convey("When asking about the default profile", func() {
			info, err := svc.ProfileInfo(ctx, "v1")

			Convey("Then its metadata should be exposed", func() {
				So(err, ShouldBeNil)
				So(info.Version, ShouldEqual, "v1")
				So(info.Checksum, ShouldNotBeEmpty)
				So(info.MinMinutes, ShouldEqual, 1500)
				So(len(info.AxisStats), ShouldEqual, 4)
			})
		})

		Convey("When publishing a new profile version", func() {
			doc := []byte(`
version: v2
min_minutes: 900
axes:
  mentality:
    threshold: 0.5
    min_coverage: 0.5
    weights: [{stat: xg_p90, weight: 1.0}]
  work_ethic:
    threshold: 0.5
    min_coverage: 0.5
    weights: [{stat: tackles_per_90, weight: 1.0}]
  presence:
    threshold: 0.5
    min_coverage: 0.5
    weights: [{stat: xg_chain_p90, weight: 1.0}]
  temperament:
    threshold: 0.5
    min_coverage: 0.5
    weights: [{stat: fouls_p90, weight: 1.0}]
`)
			info, err := svc.PublishProfile(ctx, doc)
			So(err, ShouldBeNil)
			So(info.Version, ShouldEqual, "v2")

			Convey("Then classifications under each version should be tagged with it", func() {
				records := testRecords()
				v1, err := svc.Classify(ctx, "v1", "", records)
				So(err, ShouldBeNil)
				v2, err := svc.Classify(ctx, "v2", "", records)
				So(err, ShouldBeNil)
				So(v1[0].ProfileVersion, ShouldEqual, "v1")
				So(v2[0].ProfileVersion, ShouldEqual, "v2")
			})
		})

		Convey("When publishing an invalid profile", func() {
			_, err := svc.PublishProfile(ctx, []byte("version: ''\n"))

			Convey("Then it should fail with ErrProfileInvalid", func() {
				So(err, ShouldWrap, calibration.ErrProfileInvalid)
			})
		})

		Convey("When publishing a reference population", func() {
			info, err := svc.PublishPopulation(ctx, "2024-test", testRecords())
			So(err, ShouldBeNil)
			So(info.Tag, ShouldEqual, "2024-test")
			So(info.Size, ShouldEqual, 3)
			So(info.Checksum, ShouldNotBeEmpty)

			Convey("Then batches can classify against it by tag", func() {
				reports, err := svc.Classify(ctx, "v1", "2024-test", testRecords())
				So(err, ShouldBeNil)
				So(len(reports), ShouldEqual, 3)
				So(reports[0].PopulationTag, ShouldEqual, "2024-test")
			})

			Convey("And republishing identical content should be a no-op", func() {
				again, err := svc.PublishPopulation(ctx, "2024-test", testRecords())
				So(err, ShouldBeNil)
				So(again.Checksum, ShouldEqual, info.Checksum)
			})

			Convey("And republishing different content should conflict", func() {
				altered := append(testRecords(), eligibleRecord("extra", 2400, 8, 8, 40, 40))
				_, err := svc.PublishPopulation(ctx, "2024-test", altered)
				So(err, ShouldWrap, service.ErrPopulationConflict)
			})
		})

		Convey("When publishing an empty population", func() {
			_, err := svc.PublishPopulation(ctx, "empty", nil)

			Convey("Then it should fail with ErrNoRecords", func() {
				So(err, ShouldWrap, service.ErrNoRecords)
			})
		})
	})
}

func TestServiceSelfPopulationIdentity(t *testing.T) {
	Convey("Given a started classification service", t, func() {
		ctx := context.Background()
		svc := startService(service.WithWorkerCount(2))
		defer svc.Stop()

		target := eligibleRecord("target", 2700, 10, 5, 30, 30)
		target.RecordVersion = "2024-epl"

		Convey("When the same versioned record is classified inside two different batches", func() {
			weakShooters := []model.RawStatRecord{
				target,
				eligibleRecord("w1", 2700, 1, 9, 30, 30),
				eligibleRecord("w2", 2800, 2, 8, 32, 28),
			}
			strongShooters := []model.RawStatRecord{
				target,
				eligibleRecord("s1", 2700, 25, 1, 30, 30),
				eligibleRecord("s2", 2800, 30, 2, 32, 28),
			}
			weak, err := svc.Classify(ctx, "v1", "", weakShooters)
			So(err, ShouldBeNil)
			strong, err := svc.Classify(ctx, "v1", "", strongShooters)
			So(err, ShouldBeNil)

			Convey("Then each report should reflect its own batch's population", func() {
				So(weak[0].PlayerID, ShouldEqual, "target")
				So(strong[0].PlayerID, ShouldEqual, "target")
				So(weak[0].Archetype, ShouldStartWith, "S")
				So(strong[0].Archetype, ShouldStartWith, "F")
			})
		})
	})
}

func TestServiceClassifyCancellation(t *testing.T) {
	Convey("Given a started classification service", t, func() {
		svc := startService(service.WithWorkerCount(2))
		defer svc.Stop()

		Convey("When classify calls are cancelled mid-batch", func() {
			records := make([]model.RawStatRecord, 0, 200)
			for i := 0; i < 200; i++ {
				records = append(records, eligibleRecord("p"+strconv.Itoa(i), 2000+float64(i), 5, 5, 20, 20))
			}

			baseline := runtime.NumGoroutine()
			for i := 0; i < 10; i++ {
				ctx, cancel := context.WithCancel(context.Background())
				go func() {
					time.Sleep(time.Millisecond)
					cancel()
				}()
				_, _ = svc.Classify(ctx, "v1", "", records)
				cancel()
			}

			Convey("Then no waiter goroutines should be left parked", func() {
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) && runtime.NumGoroutine() > baseline+3 {
					time.Sleep(10 * time.Millisecond)
				}
				So(runtime.NumGoroutine(), ShouldBeLessThanOrEqualTo, baseline+3)
			})
		})
	})
}

func TestServiceBatchRetention(t *testing.T) {
	Convey("Given a service with a short batch retention", t, func() {
		ctx := context.Background()
		svc := startService(service.WithBatchRetention(50 * time.Millisecond))
		defer svc.Stop()

		Convey("When an async batch completes", func() {
			id, err := svc.StartBatch(ctx, "v1", "", testRecords())
			So(err, ShouldBeNil)

			Convey("Then it should be evicted after the retention window", func() {
				var batchErr error
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					_, batchErr = svc.Batch(ctx, id)
					if batchErr != nil {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(batchErr, ShouldWrap, service.ErrBatchNotFound)
			})
		})
	})
}

func TestServiceStats(t *testing.T) {
	Convey("Given a started classification service", t, func() {
		svc := startService(service.WithWorkerCount(2), service.WithQueueSize(32))
		defer svc.Stop()

		Convey("When fetching stats", func() {
			stats := svc.GetStats()

			Convey("Then the runtime shape should be reported", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 32)
				So(stats["profiles"], ShouldEqual, 1)
			})
		})
	})
}

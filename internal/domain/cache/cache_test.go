package cache_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/okian/fpti/internal/domain/cache"
	"github.com/okian/fpti/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func key(player string) cache.Key {
	return cache.Key{
		PlayerID:       player,
		RecordVersion:  "2024-epl",
		ProfileVersion: "v1",
	}
}

func report(player, archetype string) model.ClassificationReport {
	return model.ClassificationReport{PlayerID: player, Archetype: archetype}
}

func TestInMemoryCache(t *testing.T) {
	Convey("Given an in-memory report cache", t, func() {
		ctx := context.Background()
		c := cache.NewInMemoryCache(cache.WithMaxSize(3))

		Convey("When storing and retrieving a report", func() {
			c.Put(ctx, key("p1"), report("p1", "SWIN"))

			Convey("Then the cached report should come back intact", func() {
				rep, ok := c.Get(ctx, key("p1"))
				So(ok, ShouldBeTrue)
				So(rep.Archetype, ShouldEqual, "SWIN")
				So(c.Size(), ShouldEqual, 1)
			})

			Convey("And a different profile version should miss", func() {
				k := key("p1")
				k.ProfileVersion = "v2"
				_, ok := c.Get(ctx, k)
				So(ok, ShouldBeFalse)
			})

			Convey("And a different population checksum should miss", func() {
				k := key("p1")
				k.PopulationChecksum = "abc123"
				_, ok := c.Get(ctx, k)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When storing under an empty record version", func() {
			k := key("p2")
			k.RecordVersion = ""
			c.Put(ctx, k, report("p2", "SWIN"))

			Convey("Then nothing should be cached", func() {
				_, ok := c.Get(ctx, k)
				So(ok, ShouldBeFalse)
				So(c.Size(), ShouldEqual, 0)
			})
		})

		Convey("When storing the same key twice", func() {
			c.Put(ctx, key("p3"), report("p3", "SWIN"))
			c.Put(ctx, key("p3"), report("p3", "FPCO"))

			Convey("Then the first report should win", func() {
				rep, ok := c.Get(ctx, key("p3"))
				So(ok, ShouldBeTrue)
				So(rep.Archetype, ShouldEqual, "SWIN")
				So(c.Size(), ShouldEqual, 1)
			})
		})

		Convey("When exceeding the size bound", func() {
			for i := 0; i < 5; i++ {
				player := "p" + strconv.Itoa(i)
				c.Put(ctx, key(player), report(player, "SWIN"))
			}

			Convey("Then the oldest entries should be evicted first", func() {
				So(c.Size(), ShouldEqual, 3)
				_, ok := c.Get(ctx, key("p0"))
				So(ok, ShouldBeFalse)
				_, ok = c.Get(ctx, key("p1"))
				So(ok, ShouldBeFalse)
				_, ok = c.Get(ctx, key("p4"))
				So(ok, ShouldBeTrue)
			})
		})
	})
}

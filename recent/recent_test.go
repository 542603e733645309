package recent

import (
	"testing"

	"github.com/mpvctl-cli/mpvctl/filesystem"
	"github.com/mpvctl-cli/mpvctl/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.RecentEnable, true)
	viper.Set(key.RecentSuggestions, true)
}

func TestRecent(t *testing.T) {
	Convey("Given a recently played registry", t, func() {
		Convey("When sources are remembered with different weights", func() {
			So(Remember("/media/once.mp4", 1), ShouldBeNil)
			So(Remember("/media/favorite.mp4", 10), ShouldBeNil)

			Convey("Then suggestions come back sorted by rank", func() {
				suggestionCache = make(map[string][]*record)

				s := SuggestMany("media")
				So(len(s), ShouldBeGreaterThanOrEqualTo, 2)
				So(s[0], ShouldEqual, "/media/favorite.mp4")
			})

			Convey("Then the single suggestion picks the top match", func() {
				suggestionCache = make(map[string][]*record)

				So(Suggest("favorite").MustGet(), ShouldEqual, "/media/favorite.mp4")
				So(Suggest("no-such-source").IsAbsent(), ShouldBeTrue)
			})

			Convey("Then listing returns everything, most played first", func() {
				sources := List()
				So(len(sources), ShouldBeGreaterThanOrEqualTo, 2)
				So(sources[0], ShouldEqual, "/media/favorite.mp4")
			})
		})

		Convey("When a source is remembered twice", func() {
			So(Remember("/media/repeat.mkv", 1), ShouldBeNil)
			So(Remember("  /media/repeat.mkv  ", 1), ShouldBeNil)

			Convey("Then the trimmed source accumulates rank instead of duplicating", func() {
				suggestionCache = make(map[string][]*record)

				s := SuggestMany("repeat")
				So(len(s), ShouldEqual, 1)
				So(s[0], ShouldEqual, "/media/repeat.mkv")
			})
		})

		Convey("When suggestions are disabled", func() {
			viper.Set(key.RecentSuggestions, false)
			Reset(func() { viper.Set(key.RecentSuggestions, true) })

			Convey("Then nothing is suggested", func() {
				So(SuggestMany("media"), ShouldBeEmpty)
			})
		})

		Convey("When the registry is disabled", func() {
			viper.Set(key.RecentEnable, false)
			Reset(func() { viper.Set(key.RecentEnable, true) })

			Convey("Then remembering is a no-op", func() {
				So(Remember("/media/ignored.mp4", 1), ShouldBeNil)

				suggestionCache = make(map[string][]*record)
				So(SuggestMany("ignored"), ShouldBeEmpty)
			})
		})
	})
}

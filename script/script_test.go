package script

import (
	"testing"

	"github.com/mpvctl-cli/mpvctl/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func writeScript(path, contents string) {
	_ = filesystem.API().WriteFile(path, []byte(contents), 0o644)
}

func TestHook(t *testing.T) {
	Convey("Given a hook script that records events", t, func() {
		writeScript("/hooks/recorder.lua", `
			seen = {}

			function on_event(name, data)
				seen[#seen + 1] = name
				last_data = data
			end
		`)

		hook, err := Load("/hooks/recorder.lua")
		So(err, ShouldBeNil)
		Reset(hook.Close)

		Convey("Then the hook carries the script's basename", func() {
			So(hook.Name(), ShouldEqual, "recorder")
		})

		Convey("When events are delivered", func() {
			So(hook.OnEvent("file-loaded", nil), ShouldBeNil)
			So(hook.OnEvent("time-position", 12.5), ShouldBeNil)
			So(hook.OnEvent("end-file", map[string]any{"reason": "eof"}), ShouldBeNil)

			Convey("Then the script observed all of them in order", func() {
				var count int
				err := hook.OnEvent("probe", nil)
				So(err, ShouldBeNil)

				hook.mu.Lock()
				table := hook.state.GetGlobal("seen")
				count = hook.state.ObjLen(table)
				hook.mu.Unlock()

				So(count, ShouldEqual, 4)
			})
		})
	})

	Convey("Given a script without the hook function", t, func() {
		writeScript("/hooks/empty.lua", `local x = 1`)

		Convey("When it is loaded", func() {
			_, err := Load("/hooks/empty.lua")

			Convey("Then loading fails naming the missing function", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, HookFn)
			})
		})
	})

	Convey("Given a script that raises at runtime", t, func() {
		writeScript("/hooks/boom.lua", `
			function on_event(name, data)
				error("boom")
			end
		`)

		hook, err := Load("/hooks/boom.lua")
		So(err, ShouldBeNil)
		Reset(hook.Close)

		Convey("When an event is delivered", func() {
			Convey("Then the failure surfaces as an error, not a panic", func() {
				So(hook.OnEvent("seek", nil), ShouldNotBeNil)
			})
		})
	})

	Convey("Given a missing script path", t, func() {
		Convey("When it is loaded", func() {
			_, err := Load("/hooks/nowhere.lua")

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

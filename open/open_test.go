package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHandlerCommands(t *testing.T) {
	Convey("System handler commands", t, func() {
		Convey("The default handler receives the target", func() {
			cmd, ok := command("mpvctl.toml")

			So(ok, ShouldBeTrue)
			So(cmd.Args, ShouldContain, "mpvctl.toml")
		})

		Convey("An explicit application is part of the invocation", func() {
			cmd, ok := commandWith("mpvctl.toml", "editor")

			So(ok, ShouldBeTrue)
			So(cmd.Args, ShouldContain, "editor")
			So(cmd.Args, ShouldContain, "mpvctl.toml")
		})
	})
}

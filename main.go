// Package main is the entry point for the mpvctl application.
package main

import (
	"github.com/mpvctl-cli/mpvctl/cmd"
	"github.com/mpvctl-cli/mpvctl/config"
	"github.com/mpvctl-cli/mpvctl/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}

package commands

import (
	"context"
	"flag"
	"fmt"
)

// VERSION is set at build time with -ldflags "-X ...commands.VERSION=v1.0.0"
var VERSION = "v0.0.0-dev"

var VersionCmd = Version{}

type Version struct {
}

func (cmd *Version) Name() string {
	return "version"
}

func (cmd *Version) Description() string {
	return "Displays the current version"
}

func (cmd *Version) Usage() string {
	return ""
}

func (cmd *Version) Help() {
	fmt.Println()
	fmt.Printf("  Displays the %s version in the format v<major>.<minor>.<build> e.g. v1.0.3\n", APP)
	fmt.Println()
}

func (cmd *Version) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet("version", flag.ExitOnError)
}

func (cmd *Version) Execute(ctx context.Context, options *Options) error {
	fmt.Printf("%s\n", VERSION)

	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/sheetsync/sheets-to-mysql/commands"
	"github.com/sheetsync/sheets-to-mysql/log"
)

var cli = []commands.Command{
	&commands.RunCmd,
	&commands.GetCmd,
	&commands.AuthoriseCmd,
	&commands.DaemonCmd,
	&commands.VersionCmd,
}

var options = commands.Options{
	Debug: false,
}

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("\nError reading .env file: %v\n\n", err)
		os.Exit(1)
	}

	cmd, err := commands.Parse(cli, flag.Args())
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	log.SetDebug(options.Debug)

	if err = cmd.Execute(context.Background(), &options); err != nil {
		log.Errorf("%v", err)
		os.Exit(commands.ExitCode(err))
	}
}

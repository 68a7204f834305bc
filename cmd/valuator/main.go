// Command valuator values transaction ledgers offline, from a JSON file or
// from portfolios held by a running Valuator API.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"valuator/internal/logger"
)

// Commands lists every subcommand of the tool.
var Commands = []subcommands.Command{
	&historyCmd{},
	&allocationCmd{},
	&riskCmd{},
	&snapshotCmd{},
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

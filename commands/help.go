package commands

import (
	"context"
	"flag"
	"fmt"
)

// Help displays the command list or the help for a single command.
type Help struct {
	cli  []Command
	args []string
}

func NewHelp(cli []Command) *Help {
	return &Help{
		cli: cli,
	}
}

func (cmd *Help) Name() string {
	return "help"
}

func (cmd *Help) Description() string {
	return "Displays the help for a command"
}

func (cmd *Help) Usage() string {
	return "[command]"
}

func (cmd *Help) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s help [command]\n", APP)
	fmt.Println()
	fmt.Println("  Displays the list of commands or the help for a command")
	fmt.Println()
}

func (cmd *Help) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet("help", flag.ExitOnError)
}

func (cmd *Help) Execute(ctx context.Context, options *Options) error {
	if len(cmd.args) > 0 {
		if cmd.args[0] == cmd.Name() {
			cmd.Help()
			return nil
		}

		for _, c := range cmd.cli {
			if c.Name() == cmd.args[0] {
				c.Help()
				return nil
			}
		}

		fmt.Printf("\n  Invalid command: %v. Type 'help' for the list of supported commands\n\n", cmd.args[0])
		return nil
	}

	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] <command> [options]\n", APP)
	fmt.Println()
	fmt.Println("  Commands:")
	fmt.Println()
	fmt.Printf("    %-10s %s\n", cmd.Name(), cmd.Description())
	for _, c := range cmd.cli {
		fmt.Printf("    %-10s %s\n", c.Name(), c.Description())
	}

	fmt.Println()
	fmt.Println("  Options:")
	fmt.Println()
	flag.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})
	fmt.Println()

	return nil
}

// Parse returns the command named by the first argument, with its flags
// parsed from the remaining arguments. No arguments returns the help command.
func Parse(cli []Command, args []string) (Command, error) {
	help := NewHelp(cli)

	if len(args) == 0 {
		return help, nil
	}

	if args[0] == help.Name() {
		help.args = args[1:]
		return help, nil
	}

	for _, c := range cli {
		if c.Name() == args[0] {
			if err := c.FlagSet().Parse(args[1:]); err != nil {
				return nil, err
			}

			return c, nil
		}
	}

	return nil, fmt.Errorf("invalid command '%v' - type '%s help' for the list of commands", args[0], APP)
}

// Package cmd implements beekeeper's CLI.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"go.followtheprocess.codes/beekeeper/internal/beekeeper"
	"go.followtheprocess.codes/beekeeper/internal/tui"
	"go.followtheprocess.codes/cli"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Build returns the root beekeeper CLI command.
func Build() (*cli.Command, error) {
	return cli.New(
		"beekeeper",
		cli.Short("Call REST APIs described by a declarative hive"),
		cli.Allow(cli.MaxArgs(1)),
		cli.Version(version),
		cli.Commit(commit),
		cli.BuildDate(date),
		cli.Run(func(cmd *cli.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			// A hive may be given up front, otherwise one is picked interactively
			location := ""
			if len(args) == 1 {
				location = args[0]
			}

			return tui.Run(ctx, location)
		}),
		cli.SubCommands(check, show, do),
	)
}

// check returns the check subcommand.
func check() (*cli.Command, error) {
	var options beekeeper.CheckOptions
	return cli.New(
		"check",
		cli.Short("Check hives for errors"),
		cli.Allow(cli.MinArgs(1)),
		cli.Flag(&options.Version, "hive-version", cli.NoShortHand, "", "Use this version of the hive"),
		cli.Flag(&options.Insecure, "insecure", cli.NoShortHand, false, "Allow fetching hives over plain http"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			app := beekeeper.New(cmd.Stdout(), cmd.Stderr(), false)
			return app.Check(ctx, args, options)
		}),
	)
}

// show returns the show subcommand.
func show() (*cli.Command, error) {
	var options beekeeper.ShowOptions
	return cli.New(
		"show",
		cli.Short("Show the objects and actions of a hive"),
		cli.RequiredArg("hive", "Path or URL of the hive"),
		cli.Flag(&options.JSON, "json", 'j', false, "Output the hive as JSON"),
		cli.Flag(&options.Version, "hive-version", cli.NoShortHand, "", "Use this version of the hive"),
		cli.Flag(&options.Insecure, "insecure", cli.NoShortHand, false, "Allow fetching hives over plain http"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			app := beekeeper.New(cmd.Stdout(), cmd.Stderr(), false)
			return app.Show(ctx, cmd.Arg("hive"), options)
		}),
	)
}

const doLong = `
Arguments after the hive, object and action fill the action's variables,
either by name as 'name=value' or bare, in which case a value fills the
one required variable left without one.

Values that parse as JSON are sent as such, '@path' sends the contents
of a file and anything else is a string.

Responses are decoded by their Content-Type and printed, narrowed by the
action's traversal or the '--traverse' flag. Raw responses can be saved
to a file with the '--output' flag.
`

// do returns the do subcommand.
func do() (*cli.Command, error) {
	var (
		options beekeeper.DoOptions
		verbose bool
	)
	return cli.New(
		"do",
		cli.Short("Call an action of a hive"),
		cli.Long(doLong),
		cli.Example("List widgets", "beekeeper do widgets.json Widgets list api_key=secret"),
		cli.Example("Fetch one by id", "beekeeper do widgets.json Widgets get api_key=secret 42"),
		cli.Example("Create one from a file", "beekeeper do widgets.json Widgets create widget=@widget.json"),
		cli.Allow(cli.MinArgs(3)),
		cli.Flag(&options.Timeout, "timeout", cli.NoShortHand, beekeeper.DefaultTimeout, "Timeout for the request"),
		cli.Flag(
			&options.ConnectionTimeout,
			"connection-timeout",
			cli.NoShortHand,
			beekeeper.DefaultConnectionTimeout,
			"Connection timeout for the request",
		),
		cli.Flag(&options.NoRedirect, "no-redirect", cli.NoShortHand, false, "Disable following redirects"),
		cli.Flag(&options.Output, "output", 'o', "", "Name of a file to save the response"),
		cli.Flag(&options.Traverse, "traverse", 't', "", "Traversal path through the response, e.g. data.*.name"),
		cli.Flag(&options.ID, "id", cli.NoShortHand, "", "Address one instance of the object by its id"),
		cli.Flag(&options.DryRun, "dry-run", 'n', false, "Print the request instead of sending it"),
		cli.Flag(&options.Version, "hive-version", cli.NoShortHand, "", "Use this version of the hive"),
		cli.Flag(&options.Insecure, "insecure", cli.NoShortHand, false, "Allow fetching hives over plain http"),
		cli.Flag(&verbose, "verbose", 'v', false, "Enable debug logging"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			app := beekeeper.New(cmd.Stdout(), cmd.Stderr(), verbose)
			return app.Do(ctx, args[0], args[1], args[2], args[3:], options)
		}),
	)
}

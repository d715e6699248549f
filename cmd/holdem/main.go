package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Seed     *int64 `help:"Random seed for reproducible results"`
	LogLevel string `short:"l" help:"Log level: debug, info, warn or error (overrides config)"`
	NoColor  bool   `help:"Disable coloured output"`
	Config   string `short:"c" default:"holdem.hcl" help:"Path to HCL configuration file"`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Eval    EvalCmd          `cmd:"" help:"Evaluate the best hand in a set of cards"`
	Equity  EquityCmd        `cmd:"" help:"Estimate win/tie/loss equity against one random hand"`
	Outs    OutsCmd          `cmd:"" help:"List the cards that improve a hand on the next reveal"`
	Serve   ServeCmd         `cmd:"" help:"Run the HTTP and websocket API"`
	Play    PlayCmd          `cmd:"" help:"Play Casino Hold'em against the dealer in the terminal"`
}

func newParser(cli *CLI, stdout io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("holdem"),
		kong.Description("Casino Hold'em hand evaluator, equity simulator and table"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.Bind(&cli.Globals),
		kong.BindTo(stdout, (*io.Writer)(nil)),
	)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

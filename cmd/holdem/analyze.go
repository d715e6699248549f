package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lox/casinoholdem/analysis"
	"github.com/lox/casinoholdem/internal/randutil"
	"github.com/lox/casinoholdem/poker"
)

// EvalCmd evaluates the best five-card hand in up to seven cards.
type EvalCmd struct {
	Cards  string `arg:"" help:"Cards to evaluate, e.g. 'AsKsQsJsTs' or 'As Ks Qs'"`
	Format string `short:"f" enum:"text,json,toml" default:"text" help:"Output format (text, json, toml)"`
	Output string `short:"o" help:"Write the report to this file instead of stdout"`
}

// EvalReport is the result of an evaluation.
type EvalReport struct {
	Cards    []poker.Card `json:"cards" toml:"cards"`
	Category string       `json:"category" toml:"category"`
	Rank     int          `json:"rank" toml:"rank"`
	TieBreak []int        `json:"tie_break" toml:"tie_break"`
}

func (c *EvalCmd) Run(globals *Globals, out io.Writer) error {
	cards, err := parseCards(c.Cards)
	if err != nil {
		return err
	}
	rank, err := poker.EvaluateChecked(cards)
	if err != nil {
		return err
	}
	report := EvalReport{
		Cards:    cards,
		Category: rank.Category.String(),
		Rank:     int(rank.Category),
		TieBreak: rank.TieBreak,
	}
	if report.TieBreak == nil {
		report.TieBreak = []int{}
	}

	return emit(out, c.Output, c.Format, report, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s  %s %s\n",
			handStyle.Render(poker.FormatCards(cards)),
			categoryStyle.Render(report.Category),
			fmt.Sprint(report.TieBreak))
		return err
	})
}

// EquityCmd runs a Monte Carlo equity estimate.
type EquityCmd struct {
	Hole    string `arg:"" help:"Hole cards, e.g. 'AsKd'"`
	Board   string `short:"b" help:"Community cards, e.g. 'Td7s8h'"`
	Trials  int    `short:"n" default:"10000" help:"Number of Monte Carlo trials"`
	Workers int    `short:"w" help:"Concurrent simulation workers (default: CPUs, max 8)"`
	Format  string `short:"f" enum:"text,json,toml" default:"text" help:"Output format (text, json, toml)"`
	Output  string `short:"o" help:"Write the report to this file instead of stdout"`
	Detail  bool   `short:"p" help:"Show final hand category probabilities"`
}

// EquityReport is the result of an equity estimate.
type EquityReport struct {
	Hole   []poker.Card          `json:"hole" toml:"hole"`
	Board  []poker.Card          `json:"board" toml:"board"`
	Seed   int64                 `json:"seed" toml:"seed"`
	Equity analysis.EquityResult `json:"equity" toml:"equity"`
}

func (c *EquityCmd) Run(globals *Globals, out io.Writer) error {
	logger := newLogger(globals.LogLevel)

	hole, err := parseCards(c.Hole)
	if err != nil {
		return fmt.Errorf("hole: %w", err)
	}
	board, err := parseCards(c.Board)
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if c.Trials < 0 {
		return fmt.Errorf("trials must not be negative, got %d", c.Trials)
	}

	seed := randutil.Seed(globals.Seed)
	logger.Debug("Using seed", "seed", seed)

	ctx, cancel := signalContext(logger)
	defer cancel()

	estimator := analysis.NewEstimator(analysis.WithWorkers(c.Workers), analysis.WithLogger(logger))
	result, err := estimator.Estimate(ctx, hole, board, c.Trials, randutil.New(seed))
	if err != nil {
		return err
	}

	report := EquityReport{Hole: hole, Board: board, Seed: seed, Equity: result}
	if report.Board == nil {
		report.Board = []poker.Card{}
	}
	return emit(out, c.Output, c.Format, report, func(w io.Writer) error {
		return c.writeText(w, report)
	})
}

func (c *EquityCmd) writeText(out io.Writer, report EquityReport) error {
	if len(report.Board) > 0 {
		fmt.Fprintf(out, "%s\n%s\n\n", headerStyle.Render("board"), poker.FormatCards(report.Board))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("hand"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("loss"),
		headerStyle.Render("trials"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
		handStyle.Render(poker.FormatCards(report.Hole)),
		winStyle.Render(pct(report.Equity.WinPct)),
		tieStyle.Render(pct(report.Equity.TiePct)),
		lossStyle.Render(pct(report.Equity.LossPct)),
		report.Equity.Trials)
	if err := w.Flush(); err != nil {
		return err
	}

	if c.Detail && report.Equity.Trials > 0 {
		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("category"), headerStyle.Render("chance"))
		for i := len(poker.Categories) - 1; i >= 0; i-- {
			cat := poker.Categories[i]
			fmt.Fprintf(w, "%s\t%s\n", categoryStyle.Render(cat.String()), pct(report.Equity.CategoryPct(cat)))
		}
		return w.Flush()
	}
	return nil
}

// OutsCmd lists the outs for a hand and partial board.
type OutsCmd struct {
	Hole   string `arg:"" help:"Hole cards, e.g. '9h8h'"`
	Board  string `arg:"" optional:"" help:"Community cards so far, e.g. '7h6h5c'"`
	Format string `short:"f" enum:"text,json,toml" default:"text" help:"Output format (text, json, toml)"`
	Output string `short:"o" help:"Write the report to this file instead of stdout"`
}

// OutsReport is the result of an outs calculation.
type OutsReport struct {
	Hole     []poker.Card `json:"hole" toml:"hole"`
	Board    []poker.Card `json:"board" toml:"board"`
	Category string       `json:"category" toml:"category"`
	Count    int          `json:"count" toml:"count"`
	Outs     []poker.Card `json:"outs" toml:"outs"`
}

func (c *OutsCmd) Run(globals *Globals, out io.Writer) error {
	hole, err := parseCards(c.Hole)
	if err != nil {
		return fmt.Errorf("hole: %w", err)
	}
	board, err := parseCards(c.Board)
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}
	known := append(append([]poker.Card{}, hole...), board...)
	if err := poker.CheckCards(known); err != nil {
		return err
	}

	if board == nil {
		board = []poker.Card{}
	}
	outs := analysis.Outs(hole, board)
	if outs == nil {
		outs = []poker.Card{}
	}
	report := OutsReport{
		Hole:     hole,
		Board:    board,
		Category: poker.Evaluate(known).Category.String(),
		Count:    len(outs),
		Outs:     outs,
	}
	return emit(out, c.Output, c.Format, report, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s %s  %s\n%s %s\n",
			handStyle.Render(poker.FormatCards(hole)),
			poker.FormatCards(board),
			categoryStyle.Render(report.Category),
			headerStyle.Render(fmt.Sprintf("%d outs:", report.Count)),
			poker.FormatCards(outs))
		return err
	})
}

// parseCards parses card notation, treating a blank string as no cards.
func parseCards(s string) ([]poker.Card, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return poker.ParseCards(s)
}

package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "optstrat/internal/errors"
	"optstrat/internal/logging"
	"optstrat/internal/models"
	"optstrat/internal/option"
	"optstrat/internal/strategy"
)

// payoffReport is the JSON form of a payoff evaluation.
type payoffReport struct {
	Strategy  string               `json:"strategy"`
	Positions []positionView       `json:"positions"`
	Points    []models.PayoffPoint `json:"points"`
	Summary   strategy.Summary     `json:"summary"`
	Warnings  []string             `json:"warnings,omitempty"`
}

type positionView struct {
	Description string     `json:"description"`
	Leg         models.Leg `json:"leg"`
}

type payoffFlags struct {
	name      string
	legs      []string
	contracts []string
	picks     []string
	strategy  string
	save      string
	from      float64
	to        float64
	step      float64
}

func newPayoffCmd(app *App) *cobra.Command {
	var f payoffFlags

	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Evaluate the payoff of a strategy at expiry",
		Long: `Build a strategy from legs and print its payoff over a price range.

Legs can be given three ways, and may be mixed:
  --leg      direction:kind:strike:premium[:qty[:multiplier]]
  --contract id:direction:premium[:qty]            (reference data lookup)
  --pick     direction:kind:strike:symbol:expiry:premium[:qty]
             (must match exactly one contract; empty fields match any)

Premiums are per unit and are scaled by quantity and multiplier.
Legs on the same contract id are merged. Without --from/--to the range
spans the strikes plus the configured padding.`,
		Example: `  # Iron condor
  optstrat payoff --leg long:put:35:0.5:1:100 --leg short:put:40:1:1:100 \
    --leg short:call:50:1:1:100 --leg long:call:55:0.5:1:100 --from 30 --to 60 --step 5

  # Resolve legs from reference data and save the result
  optstrat payoff --contract 198003244:long:20 --contract 198003980:short:15 --save es-combo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayoff(cmd, app, &f)
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "strategy name (default: --strategy, --save or \"adhoc\")")
	cmd.Flags().StringArrayVar(&f.legs, "leg", nil, "explicit leg direction:kind:strike:premium[:qty[:multiplier]]")
	cmd.Flags().StringArrayVar(&f.contracts, "contract", nil, "reference leg id:direction:premium[:qty]")
	cmd.Flags().StringArrayVar(&f.picks, "pick", nil, "described leg direction:kind:strike:symbol:expiry:premium[:qty]")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "start from a saved strategy")
	cmd.Flags().StringVar(&f.save, "save", "", "save the resulting legs under this name")
	cmd.Flags().Float64Var(&f.from, "from", 0, "lowest underlying price")
	cmd.Flags().Float64Var(&f.to, "to", 0, "highest underlying price")
	cmd.Flags().Float64Var(&f.step, "step", 0, "price increment (default from config)")

	return cmd
}

func runPayoff(cmd *cobra.Command, app *App, f *payoffFlags) error {
	ctx := contextOf(cmd)
	output := app.output(cmd)

	if f.strategy == "" && len(f.legs)+len(f.contracts)+len(f.picks) == 0 {
		return apperrors.Wrap(apperrors.ErrEmptyPortfolio, "give at least one --leg, --contract, --pick or --strategy")
	}

	name := f.name
	for _, candidate := range []string{f.strategy, f.save, "adhoc"} {
		if name == "" {
			name = candidate
		}
	}
	logger := logging.WithStrategy(app.Logger, name)
	portfolio := strategy.New(name, app.Logger)

	if f.strategy != "" {
		st, err := app.requireStore("--strategy")
		if err != nil {
			return err
		}
		record, err := st.GetStrategy(ctx, f.strategy)
		if err != nil {
			return err
		}
		if err := addLegs(app, portfolio, record.Legs); err != nil {
			return err
		}
	}

	if err := addFlagLegs(ctx, app, portfolio, f); err != nil {
		return err
	}
	step := f.step
	if !cmd.Flags().Changed("step") {
		step = app.Config.Payoff.Step
	}
	start, end := f.from, f.to
	if !cmd.Flags().Changed("from") || !cmd.Flags().Changed("to") {
		// every leg may have been closed by a merge
		lo, hi, err := portfolio.DefaultRange(app.Config.Payoff.Padding, step)
		if err != nil {
			return fmt.Errorf("choosing price range (pass --from and --to): %w", err)
		}
		if !cmd.Flags().Changed("from") {
			start = lo
		}
		if !cmd.Flags().Changed("to") {
			end = hi
		}
	}

	if err := renderPayoff(output, app, portfolio, start, end, step); err != nil {
		return err
	}

	if f.save != "" {
		st, err := app.requireStore("--save")
		if err != nil {
			return err
		}
		record, err := st.SaveStrategy(ctx, f.save, portfolio.Legs())
		if err != nil {
			return err
		}
		logger.Info().Str("id", record.ID).Int("legs", len(record.Legs)).Msg("Strategy saved")
		if !output.IsJSON() {
			output.Success("Saved strategy %q (%d legs)", record.Name, len(record.Legs))
		}
	}
	return nil
}

// addLegs adds explicit legs, e.g. from a saved strategy.
func addLegs(app *App, portfolio *strategy.Portfolio, legs []models.Leg) error {
	for _, leg := range legs {
		pos, err := option.New(leg)
		if err != nil {
			return err
		}
		if err := addPosition(app, portfolio, pos); err != nil {
			return err
		}
	}
	return nil
}

func addFlagLegs(ctx context.Context, app *App, portfolio *strategy.Portfolio, f *payoffFlags) error {
	for _, raw := range f.legs {
		leg, err := parseLeg(raw, app.Config.Payoff.Multiplier)
		if err != nil {
			return err
		}
		if err := addLegs(app, portfolio, []models.Leg{leg}); err != nil {
			return err
		}
	}

	if len(f.contracts) == 0 && len(f.picks) == 0 {
		return nil
	}
	src, err := app.contractSource(ctx)
	if err != nil {
		return err
	}

	for _, raw := range f.contracts {
		ref, err := parseContractRef(raw)
		if err != nil {
			return err
		}
		pos, err := ref.resolve(ctx, src)
		if err != nil {
			return err
		}
		if err := addPosition(app, portfolio, pos); err != nil {
			return err
		}
	}
	for _, raw := range f.picks {
		ref, err := parsePickRef(raw)
		if err != nil {
			return err
		}
		pos, err := ref.resolve(ctx, src)
		if err != nil {
			return err
		}
		if err := addPosition(app, portfolio, pos); err != nil {
			return err
		}
	}
	return nil
}

func addPosition(app *App, portfolio *strategy.Portfolio, pos *option.Position) error {
	logging.LogLeg(app.Logger, pos.ContractID(), pos.Direction().String(), pos.Kind().String(),
		pos.Strike(), pos.Premium(), pos.Quantity())
	return portfolio.Add(pos)
}

// renderPayoff evaluates the portfolio over [start, end] and prints the result.
func renderPayoff(output *Output, app *App, portfolio *strategy.Portfolio, start, end, step float64) error {
	points, err := portfolio.Curve(start, end, step)
	if err != nil {
		return err
	}
	logging.LogEvaluation(app.Logger, portfolio.Name(), start, end, step, len(points))
	summary := portfolio.Summarize(points)

	positions := portfolio.Positions()
	var warnings []string
	for _, w := range portfolio.Warnings() {
		warnings = append(warnings, w.Error())
	}

	if output.IsJSON() {
		report := payoffReport{
			Strategy:  portfolio.Name(),
			Positions: make([]positionView, len(positions)),
			Points:    points,
			Summary:   summary,
			Warnings:  warnings,
		}
		for i, p := range positions {
			report.Positions[i] = positionView{Description: p.String(), Leg: p.Leg()}
		}
		return output.JSON(report)
	}

	output.Bold("Strategy: %s", portfolio.Name())
	if len(positions) == 0 {
		output.Dim("All positions closed")
	} else {
		table := NewTable(output, "#", "POSITION", "CONTRACT", "EXPIRY", "PREMIUM")
		for i, p := range positions {
			contract := "-"
			if p.HasContractID() {
				contract = strconv.FormatInt(p.ContractID(), 10)
			}
			table.AddRow(strconv.Itoa(i+1), p.String(), contract, FormatExpiry(p.Expiry()), output.Money(p.Premium()))
		}
		table.Render()
	}
	for _, w := range warnings {
		output.Warning("warning: %s", w)
	}
	output.Println()

	if len(points) == 0 {
		output.Dim("No prices in %s", describeRange(start, end, step))
	} else {
		table := NewTable(output, "PRICE", "PAYOFF")
		for _, pt := range points {
			table.AddRow(FormatPrice(pt.Price), output.FormatPnL(pt.Payoff))
		}
		table.Render()
	}
	output.Println()

	printSummary(output, summary)
	return nil
}

func printSummary(output *Output, s strategy.Summary) {
	output.Bold("Summary")
	maxProfit := output.FormatPnL(s.MaxProfit)
	if s.UnlimitedProfit() {
		maxProfit += " (unlimited above range)"
	}
	maxLoss := output.FormatPnL(s.MaxLoss)
	if s.UnlimitedLoss() {
		maxLoss += " (unlimited above range)"
	}
	output.Printf("  Max profit:  %s\n", maxProfit)
	output.Printf("  Max loss:    %s\n", maxLoss)
	output.Printf("  Breakevens:  %s\n", FormatBreakevens(s.Breakevens))

	switch {
	case s.NetPremium > 0:
		output.Printf("  Net premium: %s debit\n", output.Money(s.NetPremium))
	case s.NetPremium < 0:
		output.Printf("  Net premium: %s credit\n", output.Money(-s.NetPremium))
	default:
		output.Printf("  Net premium: %s\n", output.Money(0))
	}
}

func describeRange(start, end, step float64) string {
	return fmt.Sprintf("[%s, %s] step %s", FormatPrice(start), FormatPrice(end), FormatPrice(step))
}

package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"optstrat/internal/strategy"
)

func newStrategyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "strategy",
		Aliases: []string{"strategies"},
		Short:   "Saved strategies",
		Long:    "List, show and delete strategies saved with 'payoff --save'.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			output := app.output(cmd)

			st, err := app.requireStore("strategy list")
			if err != nil {
				return err
			}
			records, err := st.ListStrategies(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(records)
			}
			if len(records) == 0 {
				output.Dim("No saved strategies")
				return nil
			}
			table := NewTable(output, "NAME", "LEGS", "UPDATED", "ID")
			for _, r := range records {
				table.AddRow(r.Name, strconv.Itoa(len(r.Legs)), FormatDateTime(r.UpdatedAt), TruncateString(r.ID, 13))
			}
			table.Render()
			return nil
		},
	})

	var from, to, step float64
	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a saved strategy and its payoff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			output := app.output(cmd)

			st, err := app.requireStore("strategy show")
			if err != nil {
				return err
			}
			record, err := st.GetStrategy(ctx, args[0])
			if err != nil {
				return err
			}

			portfolio := strategy.New(record.Name, app.Logger)
			if err := addLegs(app, portfolio, record.Legs); err != nil {
				return err
			}

			if !cmd.Flags().Changed("step") {
				step = app.Config.Payoff.Step
			}
			lo, hi, err := portfolio.DefaultRange(app.Config.Payoff.Padding, step)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("from") {
				lo = from
			}
			if cmd.Flags().Changed("to") {
				hi = to
			}
			return renderPayoff(output, app, portfolio, lo, hi, step)
		},
	}
	show.Flags().Float64Var(&from, "from", 0, "lowest underlying price")
	show.Flags().Float64Var(&to, "to", 0, "highest underlying price")
	show.Flags().Float64Var(&step, "step", 0, "price increment (default from config)")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Delete a saved strategy",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)

			st, err := app.requireStore("strategy delete")
			if err != nil {
				return err
			}
			if err := st.DeleteStrategy(contextOf(cmd), args[0]); err != nil {
				return err
			}
			app.Logger.Info().Str("strategy", args[0]).Msg("Strategy deleted")

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("Deleted strategy %q", args[0])
			return nil
		},
	})

	return cmd
}

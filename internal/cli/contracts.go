package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"optstrat/internal/contracts"
	apperrors "optstrat/internal/errors"
	"optstrat/internal/logging"
	"optstrat/internal/models"
	"optstrat/internal/store"
)

func newContractsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contracts",
		Aliases: []string{"contract", "ref"},
		Short:   "Contract reference data",
		Long:    "Import, search and inspect the contract reference data used to resolve legs.",
	}

	cmd.AddCommand(newContractsImportCmd(app))
	cmd.AddCommand(newContractsListCmd(app))
	cmd.AddCommand(newContractsShowCmd(app))

	return cmd
}

func newContractsImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import [FILE]",
		Short: "Import a CSV or JSON reference file into the store",
		Long: `Import contract reference rows into the SQLite store.

FILE defaults to [contracts] path from the config. Rows with an existing
contract id are replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			output := app.output(cmd)
			logger := logging.WithOperation(app.Logger, "import")

			st, err := app.requireStore("contracts import")
			if err != nil {
				return err
			}

			path := app.Config.Contracts.Path
			if len(args) == 1 {
				path = args[0]
			}

			started := time.Now()
			table, err := contracts.Load(path)
			if err != nil {
				logging.LogImport(logger, path, 0, time.Since(started), err)
				return err
			}
			n, err := st.SaveContracts(ctx, table.All())
			logging.LogImport(logger, path, n, time.Since(started), err)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
			}
			if err := st.SetLastSync(store.SyncContracts, time.Now()); err != nil {
				logger.Warn().Err(err).Msg("Failed to record import time")
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"source":   path,
					"imported": n,
				})
			}
			output.Success("Imported %d contracts from %s in %s", n, path, FormatDuration(time.Since(started)))
			return nil
		},
	}
}

func newContractsListCmd(app *App) *cobra.Command {
	var (
		right  string
		strike float64
		symbol string
		expiry string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts matching a description",
		Example: `  optstrat contracts list --right C --symbol ES
  optstrat contracts list --strike 2070 --expiry 2016-06-17`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			output := app.output(cmd)

			filter := contracts.Filter{Strike: strike, Symbol: symbol, Expiry: expiry}
			if right != "" {
				kind, ok := models.ParseOptionKind(right)
				if !ok {
					return apperrors.NewValidationError("right", right, "must be C or P")
				}
				filter.Kind = kind
			}

			src, err := app.contractSource(ctx)
			if err != nil {
				return err
			}
			found, err := src.FindContracts(ctx, filter)
			if err != nil {
				return err
			}
			total := len(found)
			if limit > 0 && len(found) > limit {
				found = found[:limit]
			}

			if output.IsJSON() {
				return output.JSON(found)
			}
			if total == 0 {
				output.Dim("No contracts match")
				return nil
			}
			renderContracts(output, found)
			if total > len(found) {
				output.Dim("%d of %d shown", len(found), total)
			}
			if app.Store != nil {
				if last := app.Store.GetLastSync(store.SyncContracts); !last.IsZero() {
					output.Dim("Last import: %s", FormatDateTime(last))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&right, "right", "", "C or P")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike price")
	cmd.Flags().StringVar(&symbol, "symbol", "", "underlying symbol")
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiry (YYYYMMDD or YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to show (0 = all)")

	return cmd
}

func newContractsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			output := app.output(cmd)

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return apperrors.NewValidationError("id", args[0], "must be an integer contract id")
			}
			src, err := app.contractSource(ctx)
			if err != nil {
				return err
			}
			c, err := src.GetContract(ctx, id)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(c)
			}
			renderContracts(output, []models.Contract{c})
			return nil
		},
	}
}

func renderContracts(output *Output, rows []models.Contract) {
	table := NewTable(output, "CONID", "SYMBOL", "EXPIRY", "RIGHT", "STRIKE", "MULT")
	for _, c := range rows {
		right := c.Right
		if _, ok := c.Kind(); !ok {
			right = "-"
		}
		expiry := c.Expiry
		if t, err := c.ExpiryDate(); err == nil {
			expiry = FormatExpiry(t)
		}
		table.AddRow(strconv.FormatInt(c.ID, 10), c.Symbol, expiry, right, FormatPrice(c.Strike), FormatPrice(c.Multiplier))
	}
	table.Render()
}

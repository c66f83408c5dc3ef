package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorewheel/internal/metrics"
	"github.com/dukerupert/chorewheel/internal/scheduler"
	"github.com/dukerupert/chorewheel/internal/store"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		householdID int64
		choreID     int64
		next        bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Ensure instances exist for one chore or one household",
		Long: `Ensure instances exist for the current period.

With --chore, only that chore is processed and --next also covers the
following period. With --household, every chore of the household gets its
current and next instance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (householdID == 0) == (choreID == 0) {
				return fmt.Errorf("exactly one of --household or --chore is required")
			}
			if next && householdID != 0 {
				return fmt.Errorf("--next applies to --chore only")
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			gen := a.newGenerator(db, metrics.NewNop())
			out := cmd.OutOrStdout()

			if choreID != 0 {
				ids, err := gen.EnsureForChore(cmd.Context(), choreID, next)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "chore %d: %d instance(s) created\n", choreID, len(ids))
				for _, id := range ids {
					fmt.Fprintf(out, "  instance %d\n", id)
				}
				return nil
			}

			created, err := gen.EnsureForFamily(cmd.Context(), householdID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "household %d: %d instance(s) created\n", householdID, created)
			return nil
		},
	}

	cmd.Flags().Int64Var(&householdID, "household", 0, "household id")
	cmd.Flags().Int64Var(&choreID, "chore", 0, "chore id")
	cmd.Flags().BoolVar(&next, "next", false, "also generate the following period")

	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one generation sweep over every household and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			m := metrics.NewNop()
			gen := a.newGenerator(db, m)
			sched := scheduler.New(gen, store.NewHouseholdStore(db), a.cfg.SweepInterval, a.logger, m)

			res := sched.Sweep(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "swept %d household(s): %d instance(s) created, %d failed\n",
				res.Households, res.Created, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d household(s) failed", res.Failed)
			}
			return nil
		},
	}
}

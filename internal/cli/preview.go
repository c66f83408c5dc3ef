package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorewheel/internal/period"
	"github.com/dukerupert/chorewheel/internal/recurrence"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		rule   string
		anchor string
		from   string
		until  string
		count  int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the periods a recurrence rule produces",
		Example: `  chorewheel preview --rule "FREQ=WEEKLY;BYDAY=TU,TH" --anchor 2026-02-03
  chorewheel preview --rule "FREQ=MONTHLY;BYMONTHDAY=31" --count 6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rule == "" {
				return fmt.Errorf("--rule is required")
			}
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}

			ref := a.today()
			if from != "" {
				d, err := time.Parse(time.DateOnly, from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				ref = d
			}
			start := ref
			if anchor != "" {
				d, err := time.Parse(time.DateOnly, anchor)
				if err != nil {
					return fmt.Errorf("--anchor: %w", err)
				}
				start = d
			}

			r, err := recurrence.Parse(rule)
			if err != nil {
				return err
			}
			var periods []period.Period
			if until != "" {
				end, err := time.Parse(time.DateOnly, until)
				if err != nil {
					return fmt.Errorf("--until: %w", err)
				}
				periods, err = period.Within(rule, start, ref, end)
				if err != nil {
					return err
				}
			} else {
				periods, err = period.Upcoming(rule, start, ref, count)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r.Describe())
			if len(periods) == 0 {
				fmt.Fprintln(out, "no upcoming occurrence")
				return nil
			}
			for _, p := range periods {
				marker := " "
				if p.Contains(ref) {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %s  (%d day(s))\n", marker,
					p.Start.Format("Mon 2006-01-02"), p.End.Format("Mon 2006-01-02"), p.Days())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rule, "rule", "", "recurrence rule, e.g. FREQ=WEEKLY;BYDAY=MO")
	cmd.Flags().StringVar(&anchor, "anchor", "", "first day of the schedule, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&from, "from", "", "reference day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&until, "until", "", "print every period starting between --from and this day, YYYY-MM-DD")
	cmd.Flags().IntVar(&count, "count", 5, "number of periods to print (ignored with --until)")

	return cmd
}

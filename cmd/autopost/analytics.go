package main

import (
	"fmt"
	"time"

	"github.com/nhankey2000/auto-post/internal/analytics"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Pull and show page insights",
}

var (
	analyticsSince string
	analyticsUntil string
)

var analyticsSyncCmd = &cobra.Command{
	Use:   "sync [account-id]",
	Short: "Pull daily page metrics (every active page when no id is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			result, err := app.Analytics().SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			return printBulk("Synced pages:", result)
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		since, until, err := parseRange(analyticsSince, analyticsUntil)
		if err != nil {
			return err
		}

		summary, err := app.Analytics().Sync(cmd.Context(), id, since, until)
		if err != nil {
			return err
		}
		return printResult(summary, func() {
			printSuccess("✓ Stored %d days for account #%d", len(summary.Points), id)
			printInfo("  posts scanned: %d, skipped: %d", summary.PostsScanned, summary.PostsSkipped)
			if summary.FollowersCount == nil {
				printWarning("followers count unavailable, stored value kept")
			}
		})
	},
}

var analyticsShowCmd = &cobra.Command{
	Use:   "show <account-id>",
	Short: "Show stored daily metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		since, until, err := parseRange(analyticsSince, analyticsUntil)
		if err != nil {
			return err
		}

		points, err := app.Analytics().Series(cmd.Context(), id, since, until)
		if err != nil {
			return err
		}
		return printResult(points, func() {
			rows := make([][]string, 0, len(points))
			for _, p := range points {
				rows = append(rows, []string{
					p.Date, fmt.Sprint(p.Impressions), fmt.Sprint(p.Engagements),
					fmt.Sprint(p.Reach), fmt.Sprint(p.LinkClicks), fmt.Sprint(p.FollowersCount),
				})
			}
			printTable([]string{"DATE", "IMPRESSIONS", "ENGAGEMENTS", "REACH", "CLICKS", "FOLLOWERS"}, rows)
		})
	},
}

// parseRange reads optional YYYY-MM-DD bounds; zero values select the
// default window.
func parseRange(sinceRaw, untilRaw string) (since, until time.Time, err error) {
	if sinceRaw != "" {
		if since, err = time.Parse(analytics.DateLayout, sinceRaw); err != nil {
			return since, until, fmt.Errorf("invalid --since %q: expected YYYY-MM-DD", sinceRaw)
		}
	}
	if untilRaw != "" {
		if until, err = time.Parse(analytics.DateLayout, untilRaw); err != nil {
			return since, until, fmt.Errorf("invalid --until %q: expected YYYY-MM-DD", untilRaw)
		}
	}
	return since, until, nil
}

func init() {
	for _, c := range []*cobra.Command{analyticsSyncCmd, analyticsShowCmd} {
		c.Flags().StringVar(&analyticsSince, "since", "", "First day, YYYY-MM-DD")
		c.Flags().StringVar(&analyticsUntil, "until", "", "Last day, YYYY-MM-DD")
	}

	analyticsCmd.AddCommand(analyticsSyncCmd)
	analyticsCmd.AddCommand(analyticsShowCmd)
}

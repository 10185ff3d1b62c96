package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"salat-go/internal/salat"
)

func markRunE(done bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		op := "Mark"
		if !done {
			op = "Unmark"
		}

		a, err := newApp(cmd, op, args)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Mark(cmd.Context(), date, args, done)
		if err != nil {
			a.Fail()
			return err
		}
		fmt.Println(formatRecord(rec))
		return nil
	}
}

var markCmd = &cobra.Command{
	Use:   "mark PRAYER...",
	Short: "Mark prayers as done",
	Args:  cobra.MinimumNArgs(1),
	RunE:  markRunE(true),
}

var unmarkCmd = &cobra.Command{
	Use:   "unmark PRAYER...",
	Short: "Mark prayers as not done",
	Args:  cobra.MinimumNArgs(1),
	RunE:  markRunE(false),
}

var resetCmd = &cobra.Command{
	Use:   "reset [DATE]",
	Short: "Clear every prayer on a day",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Reset", args)
		if err != nil {
			return err
		}
		defer a.Close()

		date := ""
		if len(args) > 0 {
			date = args[0]
		}
		rec, err := a.Reset(cmd.Context(), date)
		if err != nil {
			a.Fail()
			return err
		}
		fmt.Println(formatRecord(rec))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [DATE]",
	Short: "Show a day, or recent days with --days",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		a, err := newApp(cmd, "Show", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if days > 1 {
			for _, rec := range a.History(cmd.Context(), days) {
				fmt.Println(formatRecord(rec))
			}
			return nil
		}

		date := ""
		if len(args) > 0 {
			date = args[0]
		}
		rec, err := a.Day(cmd.Context(), date)
		if err != nil {
			return err
		}
		fmt.Println(formatRecord(rec))
		return nil
	},
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show current and longest perfect-day streaks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Streak", args)
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.Streaks(cmd.Context())
		fmt.Printf("Current streak: %d day(s)\n", s.Current)
		fmt.Printf("Longest streak: %d day(s)\n", s.Longest)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Weekly, monthly and yearly summaries",
}

var summaryWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Summarize the last seven days",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "WeeklySummary", args)
		if err != nil {
			return err
		}
		defer a.Close()

		w := a.WeeklySummary(cmd.Context())
		if w.Dismissed {
			fmt.Println("(dismissed this week)")
		}
		fmt.Printf("%s to %s\n", w.Start, w.End)
		fmt.Printf("Prayed %d of %d (%d%%), %d perfect day(s), %d missed\n", w.Total, w.Max, w.Percent, w.PerfectDays, w.Missed)
		for _, m := range w.ByPrayer {
			if m.Missed == 0 {
				continue
			}
			qaza := ""
			if m.Qaza {
				qaza = "  [qaza done]"
			}
			fmt.Printf("  %-8s missed %d%s\n", m.Prayer, m.Missed, qaza)
		}
		return nil
	},
}

var summaryDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Hide the weekly summary until next week",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DismissWeeklySummary", args)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.DismissWeeklySummary(cmd.Context())
	},
}

var qazaCmd = &cobra.Command{
	Use:   "qaza PRAYER",
	Short: "Toggle this week's qaza mark for a prayer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ToggleQaza", args)
		if err != nil {
			return err
		}
		defer a.Close()

		done, err := a.ToggleQaza(cmd.Context(), args[0])
		if err != nil {
			a.Fail()
			return err
		}
		fmt.Printf("Qaza for %s: %v\n", args[0], done)
		return nil
	},
}

// parseYearMonth accepts YYYY-MM; empty means the current month.
func parseYearMonth(raw string, today salat.Date) (int, time.Month, error) {
	if raw == "" {
		return today.Year, today.Month, nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: want YYYY-MM", raw)
	}
	return t.Year(), t.Month(), nil
}

var summaryMonthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Per-day counts for a month",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "MonthHistory", args)
		if err != nil {
			return err
		}
		defer a.Close()

		raw := ""
		if len(args) > 0 {
			raw = args[0]
		}
		year, month, err := parseYearMonth(raw, a.Today())
		if err != nil {
			return err
		}
		for _, d := range a.MonthHistory(cmd.Context(), year, month) {
			extra := ""
			if d.Taraweeh {
				extra += " taraweeh"
			}
			if d.Tahajjud {
				extra += " tahajjud"
			}
			fmt.Printf("%s  %d/5  %-5s%s\n", d.Date, d.Completed, strings.Repeat("#", d.Completed), extra)
		}
		return nil
	},
}

var summaryYearCmd = &cobra.Command{
	Use:   "year [YYYY]",
	Short: "Monthly totals for a year",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "YearlyOverview", args)
		if err != nil {
			return err
		}
		defer a.Close()

		year := a.Today().Year
		if len(args) > 0 {
			if year, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
		}
		y := a.YearlyOverview(cmd.Context(), year)
		for _, m := range y.Months {
			if m.Future {
				fmt.Printf("%-9s  -\n", m.Month)
				continue
			}
			fmt.Printf("%-9s  %4d/%-4d  %3d%%  %2d perfect\n", m.Month, m.Total, m.Max, m.Percent, m.PerfectDays)
		}
		fmt.Printf("%-9s  %4d/%-4d  %3d%%  %2d perfect\n", "Total", y.Total, y.Max, y.Percent, y.PerfectDays)
		fmt.Printf("Streaks: current %d, longest %d\n", y.Streaks.Current, y.Streaks.Longest)
		return nil
	},
}

var missedCmd = &cobra.Command{
	Use:   "missed",
	Short: "List today's prayers that are past due",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Missed", args)
		if err != nil {
			return err
		}
		defer a.Close()

		missed := a.MissedToday(cmd.Context())
		if len(missed) == 0 {
			fmt.Println("Nothing missed so far today.")
			return nil
		}
		for _, p := range missed {
			fmt.Println(p)
		}
		return nil
	},
}

var fastsCmd = &cobra.Command{
	Use:   "fasts",
	Short: "List upcoming Monday and Thursday fasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Fasts", args)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, d := range a.UpcomingFasts() {
			fmt.Printf("%s  %s\n", d, d.Weekday())
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{markCmd, unmarkCmd} {
		c.Flags().StringP("date", "d", "", "Day to change: YYYY-MM-DD, today or yesterday")
		rootCmd.AddCommand(c)
	}
	showCmd.Flags().IntP("days", "n", 1, "Show this many days ending today")

	summaryCmd.AddCommand(summaryWeekCmd)
	summaryCmd.AddCommand(summaryDismissCmd)
	summaryCmd.AddCommand(summaryMonthCmd)
	summaryCmd.AddCommand(summaryYearCmd)

	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(qazaCmd)
	rootCmd.AddCommand(missedCmd)
	rootCmd.AddCommand(fastsCmd)
}

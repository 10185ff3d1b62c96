package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"salat-go/internal/salat"
)

var timesCmd = &cobra.Command{
	Use:   "times [YYYY-MM]",
	Short: "Show prayer times for today or a month",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ramadan, _ := cmd.Flags().GetBool("ramadan")
		wait, _ := cmd.Flags().GetBool("refresh")

		a, err := newApp(cmd, "Times", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 && !ramadan {
			day, err := a.TodayTimes(cmd.Context())
			if err != nil {
				return err
			}
			printDay(day)
			return nil
		}

		raw := ""
		if len(args) > 0 {
			raw = args[0]
		}
		year, month, err := parseYearMonth(raw, a.Today())
		if err != nil {
			return err
		}
		days, err := a.MonthTimes(cmd.Context(), year, month, wait)
		if err != nil {
			return err
		}
		if ramadan {
			days = a.RamadanTimes(days)
		}
		fmt.Printf("%-11s  %-5s  %-5s  %-5s  %-5s  %-5s  %-5s  %-5s\n", "date", "sehri", "fajr", "dhuhr", "asr", "iftar", "isha", "hijri")
		for _, d := range days {
			fmt.Printf("%-11s  %-5s  %-5s  %-5s  %-5s  %-5s  %-5s  %s %s\n",
				d.GregorianDate, d.SehriEnd, d.Fajr, d.Dhuhr, d.Asr, d.IftarStart, d.Isha, d.HijriDay, d.HijriMonth)
		}
		return nil
	},
}

func printDay(d salat.PrayerDay) {
	fmt.Printf("%s  (%s %s %s)\n", d.GregorianDate, d.HijriDay, d.HijriMonth, d.HijriYear)
	for _, row := range [][2]string{
		{"Sehri ends", d.SehriEnd},
		{"Fajr", d.Fajr},
		{"Sunrise", d.Sunrise},
		{"Dhuhr", d.Dhuhr},
		{"Asr", d.Asr},
		{"Maghrib", d.Maghrib},
		{"Isha", d.Isha},
	} {
		fmt.Printf("  %-10s  %s\n", row[0], row[1])
	}
}

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Show or change the location used for prayer times",
}

var locationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current location",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Location", args)
		if err != nil {
			return err
		}
		defer a.Close()

		loc, ok := a.Location(cmd.Context())
		if !ok {
			fmt.Println("No location set.")
			return nil
		}
		fmt.Println(loc)
		return nil
	},
}

var locationSetCmd = &cobra.Command{
	Use:   "set LATITUDE LONGITUDE [NAME]",
	Short: "Change the location; reminders are rescheduled after a large move",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q", args[0])
		}
		lng, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q", args[1])
		}
		loc := salat.Location{Latitude: lat, Longitude: lng}
		if len(args) == 3 {
			loc.Name = args[2]
		}

		a, err := newApp(cmd, "SetLocation", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetLocation(cmd.Context(), loc); err != nil {
			a.Fail()
			return err
		}
		fmt.Printf("Location set to %s\n", loc)
		return nil
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Manage sehri and iftar reminders",
}

var remindScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule reminders for the upcoming calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ScheduleReminders", args)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ScheduleReminders(cmd.Context())
		if err != nil {
			a.Fail()
			return err
		}
		fmt.Printf("Scheduled %d reminder(s)\n", n)
		return nil
	},
}

var remindListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "PendingReminders", args)
		if err != nil {
			return err
		}
		defer a.Close()

		pending, err := a.PendingReminders(cmd.Context())
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("No pending reminders.")
			return nil
		}
		for _, r := range pending {
			fmt.Printf("%5d  %s  %-6s  %s\n", r.ID, r.FiresAt.Local().Format(time.DateTime), r.Channel, r.Title)
		}
		return nil
	},
}

var remindCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel every sehri and iftar reminder",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "CancelReminders", args)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.CancelReminders(cmd.Context())
	},
}

var remindRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Deliver reminders as they fall due until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RunReminders", args)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.RunReminders(cmd.Context())
	},
}

func init() {
	timesCmd.Flags().Bool("ramadan", false, "Show the Ramadan calendar")
	timesCmd.Flags().Bool("refresh", false, "Wait for fresh times instead of showing cached ones")

	locationCmd.AddCommand(locationShowCmd)
	locationCmd.AddCommand(locationSetCmd)

	remindCmd.AddCommand(remindScheduleCmd)
	remindCmd.AddCommand(remindListCmd)
	remindCmd.AddCommand(remindCancelCmd)
	remindCmd.AddCommand(remindRunCmd)

	rootCmd.AddCommand(timesCmd)
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(remindCmd)
}

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/gmsas95/medremind/internal/app"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/spf13/cobra"
)

func todayCmd(flags *globalFlags) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				entries := a.Engine.ListPendingToday()
				if all {
					entries = a.Engine.ListToday()
				}
				printEntries(cmd.OutOrStdout(), entries, a.Engine.Location())
				printAlert(cmd.OutOrStdout(), a.Engine.CaregiverAlert())
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include taken and missed doses")
	return cmd
}

func takeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "take <id>",
		Short: "Mark a reminder as taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				id, err := resolveLog(a, args[0])
				if err != nil {
					return err
				}
				e, err := a.Engine.Take(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Took %s (%s)\n", e.MedicineName, e.Dosage)
				return nil
			})
		},
	}
}

func snoozeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "snooze <id>",
		Short: "Snooze a pending reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				id, err := resolveLog(a, args[0])
				if err != nil {
					return err
				}
				e, err := a.Engine.Snooze(id)
				if err != nil {
					return err
				}
				until := ""
				if e.SnoozeUntil != nil {
					until = e.SnoozeUntil.In(a.Engine.Location()).Format("15:04")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "⏰ Snoozed %s until %s\n", e.MedicineName, until)
				return nil
			})
		},
	}
}

func missCmd(flags *globalFlags) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "miss <id>",
		Short: "Mark a reminder as missed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				id, err := resolveLog(a, args[0])
				if err != nil {
					return err
				}
				e, err := a.Engine.Miss(id, medication.MissReason(reason))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✗ Missed %s\n", e.MedicineName)
				printAlert(cmd.OutOrStdout(), a.Engine.CaregiverAlert())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "forgot, asleep, outside or later")
	return cmd
}

func historyCmd(flags *globalFlags) *cobra.Command {
	var missedOnly bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show resolved doses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				entries := a.Engine.ListHistory()
				if missedOnly {
					entries = a.Engine.MissedHistory()
				}
				printEntries(cmd.OutOrStdout(), entries, a.Engine.Location())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&missedOnly, "missed", false, "Only missed doses")
	return cmd
}

func statusIcon(s medication.Status) string {
	switch s {
	case medication.StatusTaken:
		return "✓"
	case medication.StatusMissed:
		return "✗"
	case medication.StatusSnoozed:
		return "⏰"
	}
	return "•"
}

func printEntries(w io.Writer, entries []medication.LogEntry, loc *time.Location) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Nothing to show.")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %s  %s  %s", statusIcon(e.Status), shortID(e.ID), e.DayKey, e.Message)
		switch {
		case e.Status == medication.StatusSnoozed && e.SnoozeUntil != nil:
			line += " (until " + e.SnoozeUntil.In(loc).Format("15:04") + ")"
		case e.Status == medication.StatusMissed && e.MissReason != "":
			line += " (" + e.MissReason.Label() + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func printAlert(w io.Writer, alert medication.CaregiverAlert) {
	if alert.Visible {
		fmt.Fprintf(w, "⚠️  Caregiver alert: %s has been missed repeatedly\n", alert.MedicineName)
	}
}

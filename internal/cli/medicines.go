package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/gmsas95/medremind/internal/app"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/spf13/cobra"
)

func medicinesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "medicines",
		Aliases: []string{"meds", "medicine"},
		Short:   "Manage the medicine catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List medicines in the order they were added",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				printMedicines(cmd.OutOrStdout(), a.Engine.ListMedicines())
				return nil
			})
		},
	})

	add := &medicineFlags{}
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a medicine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				f, err := add.fields(cmd, medication.Fields{}, a.Engine.Location())
				if err != nil {
					return err
				}
				m, err := a.Engine.CreateMedicine(f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s (%s)\n", m.Name, shortID(m.ID))
				return nil
			})
		},
	}
	add.register(addCmd)
	cmd.AddCommand(addCmd)

	edit := &medicineFlags{}
	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a medicine; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				current, err := resolveMedicine(a, args[0])
				if err != nil {
					return err
				}
				f, err := edit.fields(cmd, medication.FieldsOf(current), a.Engine.Location())
				if err != nil {
					return err
				}
				m, err := a.Engine.UpdateMedicine(current.ID, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated %s\n", m.Name)
				return nil
			})
		},
	}
	edit.register(editCmd)
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a medicine and its reminder history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				m, err := resolveMedicine(a, args[0])
				if err != nil {
					return err
				}
				if err := a.Engine.DeleteMedicine(m.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", m.Name)
				return nil
			})
		},
	})

	return cmd
}

func printMedicines(w io.Writer, meds []medication.Medicine) {
	if len(meds) == 0 {
		fmt.Fprintln(w, "No medicines yet. Add one with: medremind medicines add --name ... --dosage ...")
		return
	}
	for _, m := range meds {
		fmt.Fprintf(w, "%s  %-20s %-12s %-18s %s\n",
			shortID(m.ID), m.Name, m.Dosage, m.Timing.Label(), describeRecurrence(m.Recurrence))
	}
}

func describeRecurrence(r medication.Recurrence) string {
	switch r.Frequency {
	case medication.FrequencySpecific:
		names := make([]string, 0, len(r.SpecificDays))
		for _, d := range r.SpecificDays {
			names = append(names, d.String()[:3])
		}
		return "on " + strings.Join(names, ", ")
	case medication.FrequencyCustom:
		var parts []string
		for d := medication.Monday; d <= medication.Sunday; d++ {
			o, ok := r.Custom[d]
			if !ok {
				continue
			}
			part := d.String()[:3]
			if o.Timing != "" {
				part += " " + o.Timing.Label()
			}
			if o.Dosage != "" {
				part += " " + o.Dosage
			}
			parts = append(parts, part)
		}
		return "custom: " + strings.Join(parts, "; ")
	case medication.FrequencyAlternate:
		return "every other day"
	}
	return "daily"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveMedicine accepts a full id or a unique prefix of one
func resolveMedicine(a *app.App, ref string) (medication.Medicine, error) {
	if m, err := a.Engine.GetMedicine(ref); err == nil {
		return m, nil
	}
	var found []medication.Medicine
	for _, m := range a.Engine.ListMedicines() {
		if strings.HasPrefix(m.ID, ref) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return medication.Medicine{}, fmt.Errorf("no medicine matches %q", ref)
	}
	return medication.Medicine{}, fmt.Errorf("%q matches %d medicines", ref, len(found))
}

// resolveLog accepts a full log id or a unique prefix of one
func resolveLog(a *app.App, ref string) (string, error) {
	var found []string
	for _, e := range a.Engine.Logs() {
		if e.ID == ref {
			return e.ID, nil
		}
		if strings.HasPrefix(e.ID, ref) {
			found = append(found, e.ID)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", fmt.Errorf("no reminder matches %q", ref)
	}
	return "", fmt.Errorf("%q matches %d reminders", ref, len(found))
}

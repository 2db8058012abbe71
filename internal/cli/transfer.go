package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/gmsas95/medremind/internal/app"
	"github.com/gmsas95/medremind/internal/medication"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const catalogVersion = 1

// Catalog is the export file layout
type Catalog struct {
	Version   int                 `yaml:"version"`
	Medicines []medication.Fields `yaml:"medicines"`
}

// WriteCatalog encodes the editable fields of meds as YAML
func WriteCatalog(w io.Writer, meds []medication.Medicine) error {
	c := Catalog{Version: catalogVersion, Medicines: make([]medication.Fields, 0, len(meds))}
	for _, m := range meds {
		c.Medicines = append(c.Medicines, medication.FieldsOf(m))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}

// ReadCatalog decodes and validates an exported catalog. Nothing is
// returned unless every entry is valid.
func ReadCatalog(r io.Reader) ([]medication.Fields, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if c.Version > catalogVersion {
		return nil, fmt.Errorf("catalog version %d is newer than supported version %d", c.Version, catalogVersion)
	}

	for i, f := range c.Medicines {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("medicine %d (%s): %w", i+1, f.Name, err)
		}
	}
	return c.Medicines, nil
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the medicine catalog as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app.App) error {
				w := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return WriteCatalog(w, a.Engine.ListMedicines())
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func importCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add every medicine from an exported catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			fields, err := ReadCatalog(r)
			if err != nil {
				return err
			}

			return withApp(cmd, flags, func(a *app.App) error {
				for _, f := range fields {
					if _, err := a.Engine.CreateMedicine(f); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d medicines\n", len(fields))
				return nil
			})
		},
	}
}

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fx-booking-transformer/internal/accessor"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/model"
)

var shapesFrom, shapesTo string

var shapesCmd = &cobra.Command{
	Use:   "shapes",
	Short: "List record shapes, or the field mapping between two of them",
	Long: `Without flags, shapes lists every record shape with its fields and kinds.

With --from and --to, it prints the fields copied from one shape to the
other and the names both shapes declare with different kinds, which are
never copied.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runShapes(cmd.OutOrStdout(), mapper.Default(), shapesFrom, shapesTo)
	},
}

func init() {
	rootCmd.AddCommand(shapesCmd)
	shapesCmd.Flags().StringVar(&shapesFrom, "from", "", "Source shape, e.g. Inception")
	shapesCmd.Flags().StringVar(&shapesTo, "to", "", "Target shape, e.g. TradeLeg")
}

func runShapes(out io.Writer, engine *mapper.Engine, from, to string) error {
	if from == "" && to == "" {
		return listShapes(out, engine)
	}
	if from == "" || to == "" {
		return fmt.Errorf("--from and --to must be used together")
	}

	source, err := lookupShape(from)
	if err != nil {
		return err
	}
	target, err := lookupShape(to)
	if err != nil {
		return err
	}
	m, err := engine.Mapping(source, target)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s -> %s: %d field(s)\n", source, target, m.Len())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range m.Names() {
		p, _ := m.Pair(name)
		fmt.Fprintf(w, "  %s\t%s\n", name, p.Source.Kind())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if bad := m.Incompatible(); len(bad) > 0 {
		fmt.Fprintf(out, "incompatible: %v\n", bad)
	}
	return nil
}

func listShapes(out io.Writer, engine *mapper.Engine) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, shape := range model.Shapes() {
		table, err := engine.Table(shape)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s (%d)\n", shape, table.Len())
		for _, name := range table.Names() {
			f, _ := table.Field(name)
			fmt.Fprintf(w, "  %s\t%s\n", name, f.Kind())
		}
	}
	return w.Flush()
}

func lookupShape(name string) (*accessor.Shape, error) {
	shape, ok := model.ShapeByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", name)
	}
	return shape, nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tabler/internal/flatfile"
	"github.com/mesh-intelligence/tabler/internal/seed"
	"github.com/mesh-intelligence/tabler/internal/viewer"
	"github.com/mesh-intelligence/tabler/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func newCreateCmd(e *env) *cobra.Command {
	var header string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty table, replacing any table with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := flatfile.SanitizeName(args[0])
			if err != nil {
				return err
			}
			f, err := e.store.Create(name, types.ModeAppend)
			if err != nil {
				return err
			}
			defer f.Close()

			if header != "" {
				if _, err := f.WriteString(string(types.Normalize(header)) + "\n"); err != nil {
					return fmt.Errorf("write header: %w", err)
				}
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close table: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created table %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&header, "header", "", "space-separated header row to write first")
	return cmd
}

func newDropCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <name>",
		Short: "Delete a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted table %s\n", args[0])
			return nil
		},
	}
}

func newAddCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "add <table> <field>...",
		Short: "Append a record unless an identical one exists",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := e.store.Add(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "0 rows affected (duplicate)")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "1 row added (%d bytes)\n", n)
			return nil
		},
	}
}

func newEditCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <table> <id> <field>...",
		Short: "Replace the record at a row id",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseRowID(args[1])
			if err != nil {
				return err
			}
			n, err := e.store.Edit(args[0], id, strings.Join(args[2:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
			return nil
		},
	}
}

func newRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <table> <id>",
		Short: "Delete the record at a row id and print it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseRowID(args[1])
			if err != nil {
				return err
			}
			removed, err := e.store.DeleteRow(args[0], id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), removed)
			return nil
		},
	}
}

func newPrintCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "print <table> <id>",
		Short: "Print the record at a row id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseRowID(args[1])
			if err != nil {
				return err
			}
			row, err := e.store.PrintRow(args[0], id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), row)
			return nil
		},
	}
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <table>",
		Short: "Render a whole table, first row as header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := e.store.Rows(args[0])
			if err != nil {
				return err
			}
			if e.flags.jsonMode {
				fields := make([][]string, len(rows))
				for i, r := range rows {
					fields[i] = r.Fields()
				}
				return printJSON(cmd.OutOrStdout(), fields)
			}
			return viewer.Render(cmd.OutOrStdout(), args[0], rows)
		},
	}
}

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := e.store.List()
			if err != nil {
				return err
			}
			if e.flags.jsonMode {
				if names == nil {
					names = []string{}
				}
				return printJSON(cmd.OutOrStdout(), names)
			}
			for i, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i, name)
			}
			return nil
		},
	}
}

func newGenerateCmd(e *env) *cobra.Command {
	var seedValue uint64
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the testing table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := seed.RowCount(e.cfg.NamesFile, e.cfg.TestRows)
			if err != nil {
				return err
			}
			var gen seed.Generator = seed.NewRandGenerator()
			if cmd.Flags().Changed("seed") {
				gen = seed.NewSeededGenerator(seedValue)
			}
			n, err := seed.GenerateTestTable(e.store, gen, rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s with %d rows\n", types.TestingTable, n)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seedValue, "seed", 0, "seed for reproducible values")
	return cmd
}

func newCleanCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the testing and scratch tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.store.Clean(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleaned auxiliary tables")
			return nil
		},
	}
}

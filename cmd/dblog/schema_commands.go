package main

import (
	"fmt"
	"strconv"
	"strings"

	"go-dblog/internal/models"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the log table and reconcile its extra columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, handler, err := ctx.ensureSink()
			if err != nil {
				return err
			}
			diff, err := handler.Initialize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if diff.Empty() {
				fmt.Fprintf(out, "Table %s is up to date\n", handler.Table())
			} else {
				rows := make([][]string, 0, len(diff.Removed)+len(diff.Added))
				for _, c := range diff.Removed {
					rows = append(rows, []string{c, "dropped"})
				}
				for _, c := range diff.Added {
					rows = append(rows, []string{c, "added"})
				}
				fmt.Fprintln(out, renderTable([]string{"Column", "Change"}, rows))
			}
			fmt.Fprintf(out, "Resolved fields: %s\n", strings.Join(handler.ResolvedFields(), ", "))
			return nil
		},
	}
}

func newColumnsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List the columns of the log table",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, handler, err := ctx.ensureSink()
			if err != nil {
				return err
			}
			columns, err := repo.Columns(cmd.Context(), handler.Table())
			if err != nil {
				return err
			}
			if len(columns) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Table %s does not exist\n", handler.Table())
				return nil
			}

			configured := make(map[string]bool)
			for _, f := range handler.AdditionalFields() {
				configured[strings.ToLower(f)] = true
			}
			rows := make([][]string, 0, len(columns))
			for i, c := range columns {
				kind := "unmanaged"
				switch {
				case models.IsBaseField(c):
					kind = "base"
				case configured[strings.ToLower(c)]:
					kind = "additional"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), c, kind})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Column", "Kind"}, rows, 0))
			return nil
		},
	}
}

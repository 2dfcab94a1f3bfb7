package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cv-backend/internal/scoring"
)

func newTablesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print the active keyword and section tables as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := scoring.LoadTables(v.GetString("analysis_tables_file"))
			if err != nil {
				return err
			}
			out, err := tables.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

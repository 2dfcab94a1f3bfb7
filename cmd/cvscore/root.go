package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cv-backend/internal/bootstrap"
	"cv-backend/internal/scoring"
	"cv-backend/internal/shared/config"
	"cv-backend/internal/shared/telemetry"
)

const app = "cvscore"

// newRootCmd builds the command tree. Flags are bound to a fresh viper
// instance so ANALYSIS_TABLES_FILE, MAX_PAGES and MAX_UPLOAD_BYTES apply
// unless overridden on the command line.
func newRootCmd() *cobra.Command {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:          app,
		Short:        "cvscore scores CV documents with the heuristic analysis pipeline",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Numeric limits only override the environment when given.
			if f := cmd.Flags().Lookup("max-pages"); f != nil && f.Changed {
				v.Set("max_pages", f.Value.String())
			}
			if f := cmd.Flags().Lookup("max-bytes"); f != nil && f.Changed {
				v.Set("max_upload_bytes", f.Value.String())
			}

			// Logs go to stderr so stdout stays machine readable.
			telemetry.SetOutput(cmd.ErrOrStderr())
			level := "warn"
			if v.GetBool("debug") {
				level = "debug"
			}
			telemetry.Init(level, v.GetBool("json"))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("tables", "", "YAML file overriding the keyword and section tables")
	flags.Int("max-pages", 0, "maximum PDF pages to read (default from MAX_PAGES)")
	flags.Int64("max-bytes", 0, "maximum document size in bytes (default from MAX_UPLOAD_BYTES)")
	flags.BoolP("debug", "d", false, "verbose/debug output")
	flags.BoolP("json", "j", false, "json format for logging")

	v.BindPFlag("analysis_tables_file", flags.Lookup("tables"))
	v.BindPFlag("debug", flags.Lookup("debug"))
	v.BindPFlag("json", flags.Lookup("json"))

	rootCmd.AddCommand(newAnalyzeCmd(v), newTablesCmd(v), newVersionCmd())
	rootCmd.SetOut(os.Stdout)
	return rootCmd
}

func buildPipeline(v *viper.Viper) (*scoring.Pipeline, error) {
	return bootstrap.BuildPipeline(config.FromViper(v))
}

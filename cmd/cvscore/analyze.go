package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"cv-backend/internal/scoring"
	"cv-backend/internal/shared/telemetry"
)

// fileReport is one entry of the analyze output.
type fileReport struct {
	File   string          `json:"file" yaml:"file"`
	Result *scoring.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Report *scoring.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var (
		format   string
		details  bool
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze one or more PDF or DOCX files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (want json or yaml)", format)
			}
			pipeline, err := buildPipeline(v)
			if err != nil {
				return err
			}

			reports := analyzeFiles(cmd.Context(), pipeline, args, parallel, details)
			if err := writeReports(cmd.OutOrStdout(), format, reports); err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().BoolVar(&details, "details", false, "include detected sections and keyword statistics")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", runtime.NumCPU(), "number of files analyzed concurrently")
	return cmd
}

// analyzeFiles runs the pipeline over every path. A failing file is
// reported in its entry and does not stop the others.
func analyzeFiles(ctx context.Context, pipeline *scoring.Pipeline, paths []string, parallel int, details bool) []fileReport {
	if ctx == nil {
		ctx = context.Background()
	}
	reports := make([]fileReport, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, parallel))
	for i, path := range paths {
		g.Go(func() error {
			reports[i] = analyzeFile(gctx, pipeline, path, details)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func analyzeFile(ctx context.Context, pipeline *scoring.Pipeline, path string, details bool) fileReport {
	out := fileReport{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	report, err := pipeline.Evaluate(ctx, data)
	if err != nil {
		telemetry.Warn("cvscore.analyze_failed", map[string]any{"file": path, "err": err})
		out.Error = err.Error()
		return out
	}

	telemetry.Debug("cvscore.analyzed", map[string]any{"file": path, "score": report.Result.Score, "pages": report.Pages})
	if details {
		out.Report = &report
	} else {
		out.Result = &report.Result
	}
	return out
}

func writeReports(w io.Writer, format string, reports []fileReport) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
}

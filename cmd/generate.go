package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/export"
	"github.com/sells-group/keyword-cli/internal/ingest"
	"github.com/sells-group/keyword-cli/internal/pipeline"
)

type generateOptions struct {
	input          string
	adGroups       string
	outputDir      string
	extraTerms     string
	allowShortfall bool
	poiFilterSet   string
	offline        bool
	summary        string
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate keyword files for every ad group from a business list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline(cfg, genOpts.offline)
		if err != nil {
			return err
		}
		return runGenerate(ctx, cmd.OutOrStdout(), p, genOpts)
	},
}

func runGenerate(ctx context.Context, out io.Writer, p *pipeline.Pipeline, opts generateOptions) error {
	records, err := ingest.ReadBusinessRecordsFile(ctx, opts.input)
	if err != nil {
		return err
	}
	adGroupIDs, err := ingest.ReadAdGroupIDsFile(ctx, opts.adGroups)
	if err != nil {
		return err
	}
	var extra []string
	if opts.extraTerms != "" {
		if extra, err = ingest.ReadExtraTermsFile(ctx, opts.extraTerms); err != nil {
			return err
		}
	}

	result, err := p.Run(ctx, pipeline.Request{
		Records:        records,
		AdGroupIDs:     adGroupIDs,
		ExtraTerms:     extra,
		POIFilterSet:   opts.poiFilterSet,
		AllowShortfall: opts.allowShortfall,
	})
	if err != nil {
		return err
	}

	return writeResult(out, p.Config(), result, opts.outputDir, opts.summary)
}

// writeResult writes the export files and the optional YAML summary, then
// prints a short report.
func writeResult(out io.Writer, c *config.Config, result *pipeline.Result, outputDir, summaryPath string) error {
	paths, err := export.WriteFiles(outputDir, result.Plan, c.Output)
	if err != nil {
		return err
	}
	if summaryPath != "" {
		if err := writeSummary(summaryPath, result); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Generated %d files in %s\n", len(paths), outputDir)
	fmt.Fprintf(out, "Keywords: %d / %d\n", result.GeneratedTotal, result.TargetTotal)
	if result.Shortfall > 0 {
		fmt.Fprintf(out, "Shortfall: %d keywords missing\n", result.Shortfall)
		zap.L().Warn("keyword shortfall",
			zap.Int("generated_total", result.GeneratedTotal),
			zap.Int("target_total", result.TargetTotal),
		)
	}
	return nil
}

func writeSummary(path string, result *pipeline.Result) error {
	raw, err := yaml.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "marshal summary")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrapf(err, "write summary %s", path)
	}
	return nil
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genOpts.input, "input", "", "business list (CSV or XLSX) with 상호명, 주소(도로명), 주요서비스")
	f.StringVar(&genOpts.adGroups, "ad-groups", "", "ad group file with an ad_group_id column")
	f.StringVar(&genOpts.outputDir, "output-dir", "", "directory for the per-group files")
	f.StringVar(&genOpts.extraTerms, "extra-terms", "", "optional CSV of extra service terms")
	f.BoolVar(&genOpts.allowShortfall, "allow-shortfall", false, "write what exists when there are too few keywords")
	f.StringVar(&genOpts.poiFilterSet, "poi-filter-set", "", "named POI filter set from pois.filter_sets")
	f.BoolVar(&genOpts.offline, "offline", false, "use stub providers instead of the Naver APIs")
	f.StringVar(&genOpts.summary, "summary", "", "write a YAML run summary to this path")
	_ = generateCmd.MarkFlagRequired("input")
	_ = generateCmd.MarkFlagRequired("ad-groups")
	_ = generateCmd.MarkFlagRequired("output-dir")
	rootCmd.AddCommand(generateCmd)
}

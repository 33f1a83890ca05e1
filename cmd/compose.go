package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/keyword-cli/internal/ingest"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/pipeline"
)

type composeOptions struct {
	adGroups         string
	outputDir        string
	regions          string
	services         string
	modifiers        string
	pois             string
	patterns         []string
	keywordsPerGroup int
	summary          string
}

var compOpts composeOptions

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Generate keyword files from hand-edited term lists without calling any API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompose(cmd.Context(), cmd.OutOrStdout(), pipeline.New(cfg, nil, nil), compOpts)
	},
}

func runCompose(ctx context.Context, out io.Writer, p *pipeline.Pipeline, opts composeOptions) error {
	adGroupIDs, err := ingest.ReadAdGroupIDsFile(ctx, opts.adGroups)
	if err != nil {
		return err
	}

	result, err := p.Compose(pipeline.ComposeRequest{
		Components: model.Components{
			Regions:   ingest.ParseLines(opts.regions),
			Services:  ingest.ParseLines(opts.services),
			Modifiers: ingest.ParseLines(opts.modifiers),
			POIs:      ingest.ParseLines(opts.pois),
		},
		Patterns:         ingest.ParsePatterns(opts.patterns...),
		AdGroupIDs:       adGroupIDs,
		KeywordsPerGroup: opts.keywordsPerGroup,
	})
	if err != nil {
		return err
	}

	return writeResult(out, p.Config(), result, opts.outputDir, opts.summary)
}

func init() {
	f := composeCmd.Flags()
	f.StringVar(&compOpts.adGroups, "ad-groups", "", "ad group file with an ad_group_id column")
	f.StringVar(&compOpts.outputDir, "output-dir", "", "directory for the per-group files")
	f.StringVar(&compOpts.regions, "regions", "", "comma-separated region terms")
	f.StringVar(&compOpts.services, "services", "", "comma-separated service terms")
	f.StringVar(&compOpts.modifiers, "modifiers", "", "comma-separated modifiers")
	f.StringVar(&compOpts.pois, "pois", "", "comma-separated points of interest")
	f.StringArrayVar(&compOpts.patterns, "pattern", nil, "pattern such as region+service (repeatable, default from config)")
	f.IntVar(&compOpts.keywordsPerGroup, "keywords-per-group", 0, "keywords per ad group (default from config)")
	f.StringVar(&compOpts.summary, "summary", "", "write a YAML run summary to this path")
	_ = composeCmd.MarkFlagRequired("ad-groups")
	_ = composeCmd.MarkFlagRequired("output-dir")
	rootCmd.AddCommand(composeCmd)
}

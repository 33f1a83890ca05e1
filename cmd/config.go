package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/keyword-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration as YAML with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := yaml.Marshal(redacted(cfg))
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), string(raw))
		return err
	},
}

// redacted returns a copy of c with credential values masked.
func redacted(c *config.Config) *config.Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	out.Naver.MapsClientID = mask(c.Naver.MapsClientID)
	out.Naver.MapsClientSecret = mask(c.Naver.MapsClientSecret)
	out.Naver.LocalClientID = mask(c.Naver.LocalClientID)
	out.Naver.LocalClientSecret = mask(c.Naver.LocalClientSecret)
	return &out
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

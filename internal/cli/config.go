package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			cfg.Store.RedisURL = redact(cfg.Store.RedisURL)
			if cfg.Store.TableConnectionString != "" {
				cfg.Store.TableConnectionString = "***"
			}
			return cfg.WriteTOML(a.stdout)
		},
	}
}

// redact hides the credentials part of a URL.
func redact(s string) string {
	if s == "" {
		return s
	}
	if i := strings.Index(s, "@"); i >= 0 {
		if j := strings.Index(s, "://"); j >= 0 && j < i {
			return s[:j+3] + "***" + s[i:]
		}
	}
	return s
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/balancelab/balance-core/pkg/logger"
)

// newRootCmd builds the balanced CLI. App-level settings resolve from
// flags, BALANCED_* environment variables, and an optional config file,
// in that order of precedence.
func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "balanced",
		Short:         "Game balance optimization daemon and CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile := v.GetString("config"); cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config file: %w", err)
				}
			}
			l, err := logger.New(v.GetString("log-level"), v.GetString("log-format"))
			if err != nil {
				return err
			}
			logger.SetDefault(l)
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "optional app config file")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")

	v.SetEnvPrefix("BALANCED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(root.PersistentFlags()); err != nil {
		panic(err)
	}

	root.AddCommand(newOptimizeCmd())
	root.AddCommand(newServeCmd(v))
	root.AddCommand(newReportCmd())
	return root
}

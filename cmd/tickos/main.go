// Command tickos drives kernel sessions of the hello program from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/tickos"
	"github.com/viant/tickos/examples/hello"
)

var configURL string

var rootCmd = &cobra.Command{
	Use:           "tickos",
	Short:         "Run and inspect persisted process kernels",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configURL, "config", "c", "", "configuration URL (YAML)")
}

func newService(cmd *cobra.Command) (*tickos.Service, error) {
	cfg := tickos.DefaultConfig()
	if configURL != "" {
		var err error
		if cfg, err = tickos.LoadConfig(cmd.Context(), configURL); err != nil {
			return nil, err
		}
	}
	return tickos.NewFromConfig(hello.Factory, cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tickos:", err)
		os.Exit(1)
	}
}

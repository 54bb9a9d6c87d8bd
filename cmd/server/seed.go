package main

import (
	"os"

	"github.com/spf13/cobra"
)

func seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load places, catalogs and the first Administrador",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := commonRun()
			if err != nil {
				return err
			}
			var raw []byte
			if file != "" {
				if raw, err = os.ReadFile(file); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()
			return a.seedFrom(ctx, raw)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (defaults to the embedded Boyacá data)")
	return cmd
}

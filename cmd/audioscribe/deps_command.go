package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audioscribe/internal/deps"
	"audioscribe/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var checkBackend bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and backend readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				switch {
				case !s.Available && s.Optional:
					state = "optional"
				case !s.Available:
					state = "missing"
				}
				detail := s.Detail
				if s.Available {
					detail = s.Path
				}
				rows = append(rows, []string{s.Name, s.Command, state, detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "State", "Detail"}, rows, nil))

			if checkBackend {
				results := preflight.RunAll(cmd.Context(), cfg)
				checkRows := make([][]string, 0, len(results))
				for _, r := range results {
					checkRows = append(checkRows, []string{r.Name, yesNo(r.Passed), r.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Detail"}, checkRows, nil))
				if failed := preflight.Failed(results); len(failed) > 0 {
					return fmt.Errorf("%d preflight check(s) failed", len(failed))
				}
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkBackend, "preflight", false, "Also run directory and backend preflight checks")
	return cmd
}

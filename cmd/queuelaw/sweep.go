package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexshd/queuelaw"
)

func newSweepCmd() *cobra.Command {
	var (
		pf      priorityFlags
		factors string
		workers int
		knee    float64
	)

	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Scale every class rate by a list of factors and evaluate each point",
		Example: `  queuelaw sweep --mu 15 --rates 4,3,3 --factors 0.5,1,1.4,1.5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, d, err := pf.spec()
			if err != nil {
				return err
			}
			scale, err := parseFloatList("factors", factors)
			if err != nil {
				return err
			}

			cfg := queuelaw.DefaultSweepConfig()
			if workers > 0 {
				cfg.Workers = workers
			}
			points, err := queuelaw.Sweep(cmd.Context(), spec, d, scale, cfg)
			if err != nil {
				return err
			}

			t := newTable("Factor", "ρ", "Variant", "System W", "Status")
			for _, p := range points {
				rho := formatMetric(queuelaw.Round(p.Rho, queuelaw.DefaultPrecision))
				if !p.Stable() {
					status := "error: " + p.Err.Error()
					if queuelaw.Unstable(p.Err) {
						status = string(queuelaw.ZoneUnstable)
					}
					t.Row(formatMetric(p.Factor), rho, "", "", status)
					continue
				}
				t.Row(formatMetric(p.Factor), rho, string(p.Result.Variant),
					formatMetric(queuelaw.Round(p.Result.System.W, queuelaw.DefaultPrecision)),
					string(queuelaw.ZoneFor(p.Rho)))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Render())

			if f, ok := queuelaw.KneeFactor(points, knee); ok {
				fmt.Fprintf(out, "first factor with ρ ≥ %g: %g\n", knee, f)
			}
			return nil
		},
	}

	pf.register(cmd)
	f := cmd.Flags()
	f.StringVar(&factors, "factors", "0.25,0.5,0.75,1,1.25,1.5", "Comma-separated load factors")
	f.IntVar(&workers, "workers", 0, "Concurrent evaluations (0 = GOMAXPROCS)")
	f.Float64Var(&knee, "knee", 0.9, "Report the first factor whose ρ reaches this")
	return cmd
}

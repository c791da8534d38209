package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexshd/queuelaw"
)

// priorityFlags are shared by plan and sweep.
type priorityFlags struct {
	mu         float64
	servers    int
	rates      string
	discipline string
}

func (p *priorityFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&p.mu, "mu", 0, "Service rate μ of one server")
	f.IntVarP(&p.servers, "servers", "s", 1, "Number of servers")
	f.StringVarP(&p.rates, "rates", "r", "", "Per-class arrival rates in priority order, e.g. 4,3,3")
	f.StringVarP(&p.discipline, "discipline", "d", string(queuelaw.Preemptive), "preemptive or non-preemptive")
	_ = cmd.MarkFlagRequired("mu")
	_ = cmd.MarkFlagRequired("rates")
}

func (p *priorityFlags) spec() (queuelaw.PrioritySpec, queuelaw.Discipline, error) {
	rates, err := parseFloatList("rates", p.rates)
	if err != nil {
		return queuelaw.PrioritySpec{}, "", err
	}
	d, err := parseDiscipline(p.discipline)
	if err != nil {
		return queuelaw.PrioritySpec{}, "", err
	}
	return queuelaw.NewPrioritySpec(p.mu, p.servers, rates...), d, nil
}

func parseDiscipline(s string) (queuelaw.Discipline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "preemptive", "p":
		return queuelaw.Preemptive, nil
	case "non-preemptive", "nonpreemptive", "np":
		return queuelaw.NonPreemptive, nil
	default:
		return "", fmt.Errorf("unknown discipline %q (want preemptive or non-preemptive)", s)
	}
}

func newPlanCmd() *cobra.Command {
	var (
		pf         priorityFlags
		class      int
		target     float64
		maxServers int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Report headroom and the smallest server count meeting a wait target",
		Example: `  queuelaw plan --mu 4 --rates 3,2 --class 2 --target 0.32
  queuelaw plan --mu 15 --rates 4,3,3 -d non-preemptive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, d, err := pf.spec()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			room, err := queuelaw.Headroom(spec)
			if err != nil {
				return err
			}
			t := newTable("Load λ", "Capacity sμ", "Spare", "ρ", "Max factor", "Zone")
			t.Row(formatMetric(room.Load), formatMetric(room.Capacity),
				formatMetric(queuelaw.Round(room.Spare, queuelaw.DefaultPrecision)),
				formatMetric(queuelaw.Round(room.Rho, queuelaw.DefaultPrecision)),
				formatMetric(queuelaw.Round(room.MaxFactor, queuelaw.DefaultPrecision)),
				string(room.Zone))
			fmt.Fprintln(out, t.Render())

			if !cmd.Flags().Changed("target") {
				return nil
			}
			plan, err := queuelaw.MinServers(spec, d, class, target, maxServers)
			if errors.Is(err, queuelaw.ErrTargetUnreachable) {
				fmt.Fprintf(out, "class %d: %v\n", class, err)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "class %d meets W ≤ %g with s = %d (%s, W = %s)\n",
				class, target, plan.Servers, plan.Variant,
				formatMetric(queuelaw.Round(plan.W, queuelaw.DefaultPrecision)))
			return nil
		},
	}

	pf.register(cmd)
	f := cmd.Flags()
	f.IntVar(&class, "class", 1, "Class (1 = highest priority) the target applies to")
	f.Float64Var(&target, "target", 0, "Mean time in system the class must not exceed")
	f.IntVar(&maxServers, "max-servers", 64, "Largest server count to try")
	return cmd
}

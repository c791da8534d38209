package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/alexshd/queuelaw"
	"github.com/alexshd/queuelaw/internal/httpapi"
)

type calcOptions struct {
	model      string
	lambda     float64
	mu         float64
	servers    int
	capacity   int
	population int
	classes    int
	state      int
	time       float64
	variance   float64
	rates      string
	precision  int
	asJSON     bool
}

func newCalcCmd() *cobra.Command {
	var opts calcOptions

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Evaluate one model and print its metrics",
		Example: `  queuelaw calc --model MM1 --lambda 2 --mu 3
  queuelaw calc --model MCPCI --mu 15 --rates 4,3,3
  queuelaw calc --model MCPSI --mu 4 --servers 2 --rates 3,2 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request(cmd)
			if err != nil {
				return err
			}
			rep, err := queuelaw.Evaluate(req, opts.precision)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeReportJSON(cmd.OutOrStdout(), rep)
			}
			return writeReportTable(cmd.OutOrStdout(), rep, opts.precision)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.model, "model", "m", "", "Model code, see queuelaw models")
	f.Float64VarP(&opts.lambda, "lambda", "l", 0, "Aggregate arrival rate λ (defaults to the sum of --rates)")
	f.Float64Var(&opts.mu, "mu", 0, "Service rate μ of one server")
	f.IntVarP(&opts.servers, "servers", "s", 1, "Number of servers")
	f.IntVarP(&opts.capacity, "capacity", "k", 0, "System capacity K")
	f.IntVarP(&opts.population, "population", "N", 0, "Source population N")
	f.IntVar(&opts.classes, "classes", 0, "Declared class count (0 = number of rates)")
	f.IntVarP(&opts.state, "state", "n", 0, "Also report Pn for this state")
	f.Float64VarP(&opts.time, "time", "t", 0, "Also report P(W>t) and P(Wq>t)")
	f.Float64Var(&opts.variance, "variance", 0, "M/G/1 service-time variance (default 1/μ²)")
	f.StringVarP(&opts.rates, "rates", "r", "", "Per-class arrival rates in priority order, e.g. 4,3,3")
	f.IntVarP(&opts.precision, "precision", "p", queuelaw.DefaultPrecision, "Fractional digits")
	f.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("mu")
	return cmd
}

func (o calcOptions) request(cmd *cobra.Command) (queuelaw.Request, error) {
	rates, err := parseFloatList("rates", o.rates)
	if err != nil {
		return queuelaw.Request{}, err
	}
	req := queuelaw.Request{
		Model:      queuelaw.ModelType(o.model),
		Lambda:     o.lambda,
		Mu:         o.mu,
		Servers:    o.servers,
		Capacity:   o.capacity,
		Population: o.population,
		Classes:    o.classes,
		Rates:      rates,
	}
	flags := cmd.Flags()
	if !flags.Changed("lambda") {
		req.Lambda = sum(rates)
	}
	if flags.Changed("state") {
		req.State = &o.state
	}
	if flags.Changed("time") {
		req.Time = &o.time
	}
	if flags.Changed("variance") {
		req.Variance = &o.variance
	}
	return req, nil
}

// parseFloatList parses the comma-separated value of --name.
func parseFloatList(name, raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	rates := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("--%s: %q is not a number", name, strings.TrimSpace(p))
		}
		rates[i] = v
	}
	return rates, nil
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

func writeReportJSON(w io.Writer, rep queuelaw.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]any{
		"model":      rep.Model,
		"model_name": rep.Name,
		"metrics":    httpapi.SafeValues(rep.Values),
	})
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func writeReportTable(w io.Writer, rep queuelaw.Report, precision int) error {
	fmt.Fprintf(w, "%s (%s)  ρ = %s\n", rep.Name, rep.Model, formatMetric(queuelaw.Round(rep.Rho, precision)))

	var t *table.Table
	if rep.Priority != nil {
		t = newTable("", "W", "Wq", "L", "Lq")
		metrics := make(queuelaw.Table, len(rep.Values))
		for k, v := range rep.Values {
			metrics[k] = v.(map[string]float64)
		}
		for _, key := range metrics.Keys() {
			m := metrics[key]
			t.Row(key, formatMetric(m["W"]), formatMetric(m["Wq"]), formatMetric(m["L"]), formatMetric(m["Lq"]))
		}
	} else {
		t = newTable("Metric", "Value")
		keys := make([]string, 0, len(rep.Values))
		for k := range rep.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.Row(k, formatMetric(rep.Values[k].(float64)))
		}
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

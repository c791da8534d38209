package queuelaw

import (
	"fmt"
	"sort"
	"strings"
)

// ModelType is the code of a model in the catalog.
type ModelType string

const (
	ModelMM1  ModelType = "MM1"
	ModelMMS  ModelType = "MMS"
	ModelMM1K ModelType = "MM1K"
	ModelMMSK ModelType = "MMSK"
	ModelMM1N ModelType = "MM1N"
	ModelMMSN ModelType = "MMSN"
	ModelMG1  ModelType = "MG1"
)

// ModelInfo describes a catalog entry for listings and request validation.
type ModelInfo struct {
	Type        ModelType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Params      []string  `json:"params"`
	Required    []string  `json:"required"`
}

var catalog = map[ModelType]ModelInfo{
	ModelMM1: {
		Name:        "M/M/1",
		Description: "Poisson arrivals, exponential service, one server",
		Params:      []string{"lamb", "mu", "n", "t"},
		Required:    []string{"lamb", "mu"},
	},
	ModelMMS: {
		Name:        "M/M/s",
		Description: "Poisson arrivals, exponential service, s servers",
		Params:      []string{"lamb", "mu", "s", "n", "t"},
		Required:    []string{"lamb", "mu", "s"},
	},
	ModelMM1K: {
		Name:        "M/M/1/K",
		Description: "Single server with room for at most K customers",
		Params:      []string{"lamb", "mu", "k", "n"},
		Required:    []string{"lamb", "mu", "k"},
	},
	ModelMMSK: {
		Name:        "M/M/s/K",
		Description: "s servers with room for at most K customers",
		Params:      []string{"lamb", "mu", "s", "k", "n"},
		Required:    []string{"lamb", "mu", "s", "k"},
	},
	ModelMM1N: {
		Name:        "M/M/1/N",
		Description: "Single server fed by a finite population of N sources",
		Params:      []string{"lamb", "mu", "N", "n"},
		Required:    []string{"lamb", "mu", "N"},
	},
	ModelMMSN: {
		Name:        "M/M/s/N",
		Description: "s servers fed by a finite population of N sources",
		Params:      []string{"lamb", "mu", "s", "N", "n"},
		Required:    []string{"lamb", "mu", "s", "N"},
	},
	ModelMG1: {
		Name:        "M/G/1",
		Description: "Poisson arrivals, general service time (variance defaults to 1/μ²)",
		Params:      []string{"lamb", "mu", "variance"},
		Required:    []string{"lamb", "mu"},
	},
	ModelType(PreemptiveSingle): {
		Name:        "Priority with interruption, one server",
		Description: "Preemptive priority, s = 1, up to 4 classes",
		Params:      []string{"lamb", "mu", "classes", "lamb_list"},
		Required:    []string{"lamb", "mu", "lamb_list"},
	},
	ModelType(PreemptiveMulti): {
		Name:        "Priority with interruption, s servers",
		Description: "Preemptive priority, s ≥ 1, up to 4 classes",
		Params:      []string{"lamb", "mu", "s", "classes", "lamb_list"},
		Required:    []string{"lamb", "mu", "s", "lamb_list"},
	},
	ModelType(NonPreemptiveMulti): {
		Name:        "Priority without interruption, s servers",
		Description: "Non-preemptive priority, s ≥ 1, any number of classes",
		Params:      []string{"lamb", "mu", "s", "classes", "lamb_list"},
		Required:    []string{"lamb", "mu", "s", "lamb_list"},
	},
	ModelType(NonPreemptiveSingle): {
		Name:        "Priority without interruption, one server",
		Description: "Non-preemptive priority, s = 1, exactly 3 classes",
		Params:      []string{"lamb", "mu", "lamb_list"},
		Required:    []string{"lamb", "mu", "lamb_list"},
	},
}

// Models returns the catalog codes in lexical order.
func Models() []ModelType {
	out := make([]ModelType, 0, len(catalog))
	for t := range catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup returns the catalog entry for a code; the match ignores case.
func Lookup(t ModelType) (ModelInfo, bool) {
	t = ModelType(strings.ToUpper(strings.TrimSpace(string(t))))
	info, ok := catalog[t]
	if !ok {
		return ModelInfo{}, false
	}
	info.Type = t
	return info, true
}

// Request carries the raw inputs of any catalog model. Fields a model does
// not list in its Params are ignored.
type Request struct {
	Model      ModelType
	Lambda     float64
	Mu         float64
	Servers    int
	Capacity   int       // K
	Population int       // N
	Classes    int       // Declared class count
	Rates      []float64 // Per-class rates, priority order
	Variance   *float64  // M/G/1 service-time variance
	State      *int      // n for Pn
	Time       *float64  // t for P(W > t), P(Wq > t)
}

// Report is the evaluated form of a Request.
type Report struct {
	Model    ModelType
	Name     string
	Rho      float64
	Single   *SingleMetrics // Set for single-class models
	Priority *Result        // Set for priority models
	Values   map[string]any // Rounded presentation values
}

// Evaluate validates req, runs the model it names and rounds the
// presentation values to precision digits.
func Evaluate(req Request, precision int) (Report, error) {
	info, ok := Lookup(req.Model)
	if !ok {
		return Report{}, invalid("model_type", "unsupported model %q (available: %s)",
			req.Model, joinModels(Models()))
	}

	rep := Report{Model: info.Type, Name: info.Name}

	if solve, ok := Variant(info.Type).Solver(); ok {
		servers := req.Servers
		if info.Type == ModelType(PreemptiveSingle) || info.Type == ModelType(NonPreemptiveSingle) {
			if servers == 0 {
				servers = 1
			}
		}
		spec := PrioritySpec{
			Lambda:  req.Lambda,
			Mu:      req.Mu,
			Servers: servers,
			Rates:   req.Rates,
			Classes: req.Classes,
		}
		res, err := solve(spec)
		if err != nil {
			return Report{}, fmt.Errorf("%s: %w", info.Type, err)
		}
		rep.Priority = &res
		rep.Rho = res.System.Rho
		rep.Values = tableValues(res.Table(precision))
		return rep, nil
	}

	m, err := evaluateSingle(info.Type, req)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", info.Type, err)
	}
	rep.Single = &m
	rep.Rho = m.Rho
	rep.Values = singleValues(m, req, precision)
	return rep, nil
}

func evaluateSingle(t ModelType, req Request) (SingleMetrics, error) {
	switch t {
	case ModelMM1:
		return MM1(req.Lambda, req.Mu)
	case ModelMMS:
		return MMS(req.Lambda, req.Mu, req.Servers)
	case ModelMM1K:
		return MM1K(req.Lambda, req.Mu, req.Capacity)
	case ModelMMSK:
		return MMSK(req.Lambda, req.Mu, req.Servers, req.Capacity)
	case ModelMM1N:
		return MM1N(req.Lambda, req.Mu, req.Population)
	case ModelMMSN:
		return MMSN(req.Lambda, req.Mu, req.Servers, req.Population)
	case ModelMG1:
		variance := 1 / (req.Mu * req.Mu)
		if req.Variance != nil {
			variance = *req.Variance
		}
		return MG1(req.Lambda, req.Mu, variance)
	default:
		return SingleMetrics{}, invalid("model_type", "unsupported model %q", t)
	}
}

func tableValues(t Table) map[string]any {
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func singleValues(m SingleMetrics, req Request, precision int) map[string]any {
	out := map[string]any{
		"Rho":         Round(m.Rho, precision),
		"Utilization": Round(m.Utilization, precision),
		"P0":          Round(m.P0, precision),
		"L":           Round(m.L, precision),
		"Lq":          Round(m.Lq, precision),
		"W":           Round(m.W, precision),
		"Wq":          Round(m.Wq, precision),
		"LambdaEff":   Round(m.LambdaEff, precision),
	}
	if req.State != nil && m.HasDistribution() {
		out[fmt.Sprintf("P%d", *req.State)] = Round(m.Pn(*req.State), precision)
	}
	if req.Time != nil {
		if pw, pwq, ok := m.Tail(*req.Time); ok {
			out["PW>t"] = Round(pw, precision)
			out["PWq>t"] = Round(pwq, precision)
		}
	}
	return out
}

func joinModels(models []ModelType) string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

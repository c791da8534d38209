package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/alexshd/queuelaw"
)

// rateList decodes lamb_list from either a JSON array of numbers or a
// comma-separated string such as "4,3,3".
type rateList []float64

func (l *rateList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		rates, err := parseRates(raw)
		if err != nil {
			return err
		}
		*l = rates
		return nil
	}
	var rates []float64
	if err := json.Unmarshal(data, &rates); err != nil {
		return fmt.Errorf("lamb_list must be a list of numbers or a comma-separated string")
	}
	*l = rates
	return nil
}

// parseRates splits "4, 3,3" into its numbers. Empty input yields nil.
func parseRates(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	rates := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("lamb_list: %q is not a number", strings.TrimSpace(p))
		}
		rates = append(rates, v)
	}
	return rates, nil
}

// calculateRequest is the POST /api/calculate body. Pointer fields tell a
// missing parameter apart from an explicit zero.
type calculateRequest struct {
	ModelType  string   `json:"model_type"`
	Lambda     *float64 `json:"lamb,omitempty"`
	Mu         *float64 `json:"mu,omitempty"`
	Servers    *int     `json:"s,omitempty"`
	Capacity   *int     `json:"k,omitempty"`
	State      *int     `json:"n,omitempty"`
	Population *int     `json:"N,omitempty"`
	Time       *float64 `json:"t,omitempty"`
	Variance   *float64 `json:"variance,omitempty"`
	Classes    *int     `json:"classes,omitempty"`
	Rates      rateList `json:"lamb_list,omitempty"`
	Precision  *int     `json:"precision,omitempty"`
}

// has reports whether the named parameter was supplied.
func (c calculateRequest) has(param string) bool {
	switch param {
	case "lamb":
		return c.Lambda != nil
	case "mu":
		return c.Mu != nil
	case "s":
		return c.Servers != nil
	case "k":
		return c.Capacity != nil
	case "n":
		return c.State != nil
	case "N":
		return c.Population != nil
	case "t":
		return c.Time != nil
	case "variance":
		return c.Variance != nil
	case "classes":
		return c.Classes != nil
	case "lamb_list":
		return c.Rates != nil
	}
	return false
}

// toRequest checks the parameters required by info and fills the defaults:
// s is 1 when the model takes it but it was omitted, and every other count
// defaults to zero.
func (c calculateRequest) toRequest(info queuelaw.ModelInfo) (queuelaw.Request, error) {
	for _, p := range info.Required {
		if p == "s" {
			continue
		}
		if !c.has(p) {
			return queuelaw.Request{}, &queuelaw.ValidationError{
				Field:  p,
				Reason: fmt.Sprintf("required by %s", info.Type),
			}
		}
	}

	takes := func(p string) bool { return slices.Contains(info.Params, p) }
	req := queuelaw.Request{Model: info.Type}
	req.Lambda = deref(c.Lambda)
	req.Mu = deref(c.Mu)
	if takes("s") {
		req.Servers = 1
		if c.Servers != nil {
			req.Servers = *c.Servers
		}
	}
	if takes("k") {
		req.Capacity = deref(c.Capacity)
	}
	if takes("N") {
		req.Population = deref(c.Population)
	}
	if takes("classes") {
		req.Classes = deref(c.Classes)
	}
	if takes("lamb_list") {
		req.Rates = c.Rates
	}
	if takes("n") {
		req.State = c.State
	}
	if takes("t") {
		req.Time = c.Time
	}
	if takes("variance") {
		req.Variance = c.Variance
	}
	return req, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// calculateResponse is the success body of POST /api/calculate.
type calculateResponse struct {
	Success   bool           `json:"success"`
	ID        string         `json:"id,omitempty"`
	Model     string         `json:"model"`
	ModelName string         `json:"model_name"`
	Metrics   map[string]any `json:"metrics"`
}

// jsonSafe replaces values JSON cannot carry: +Inf, -Inf and NaN become
// "infinity", "-infinity" and "nan". Nested metric maps are walked.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case float64:
		switch {
		case math.IsInf(x, 1):
			return "infinity"
		case math.IsInf(x, -1):
			return "-infinity"
		case math.IsNaN(x):
			return "nan"
		}
		return x
	case map[string]float64:
		out := make(map[string]any, len(x))
		for k, f := range x {
			out[k] = jsonSafe(f)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonSafe(e)
		}
		return out
	default:
		return v
	}
}

// SafeValues applies the jsonSafe substitutions to a Report's Values so the
// map can be encoded with encoding/json.
func SafeValues(values map[string]any) map[string]any {
	return jsonSafe(values).(map[string]any)
}

package httpapi

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexshd/queuelaw"
)

func TestRateList(t *testing.T) {
	tests := []struct {
		in   string
		want rateList
	}{
		{`[4,3,3]`, rateList{4, 3, 3}},
		{`"4,3,3"`, rateList{4, 3, 3}},
		{`" 1.5 , 0.5 "`, rateList{1.5, 0.5}},
		{`""`, nil},
		{`null`, nil},
	}
	for _, tt := range tests {
		var got struct {
			Rates rateList `json:"lamb_list"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"lamb_list":`+tt.in+`}`), &got), tt.in)
		assert.Equal(t, tt.want, got.Rates, tt.in)
	}

	for _, bad := range []string{`"1,,2"`, `"a"`, `{"x":1}`, `[1,"2"]`} {
		var l rateList
		assert.Error(t, json.Unmarshal([]byte(bad), &l), bad)
	}
}

func TestToRequestDefaults(t *testing.T) {
	lamb, mu, k := 2.0, 3.0, 4
	info, ok := queuelaw.Lookup(queuelaw.ModelMMSK)
	require.True(t, ok)

	req, err := calculateRequest{Lambda: &lamb, Mu: &mu, Capacity: &k}.toRequest(info)
	require.NoError(t, err)
	assert.Equal(t, 1, req.Servers, "s defaults to 1")
	assert.Equal(t, 4, req.Capacity)
	assert.Zero(t, req.Population, "N is not a parameter of MMSK")

	info, _ = queuelaw.Lookup(queuelaw.ModelMM1)
	n := 3
	pop := 7
	req, err = calculateRequest{Lambda: &lamb, Mu: &mu, State: &n, Population: &pop}.toRequest(info)
	require.NoError(t, err)
	require.NotNil(t, req.State)
	assert.Equal(t, 3, *req.State)
	assert.Zero(t, req.Population)
	assert.Zero(t, req.Servers, "MM1 takes no s")

	_, err = calculateRequest{Mu: &mu}.toRequest(info)
	assert.ErrorIs(t, err, queuelaw.ErrInvalidInput)
}

func TestJSONSafe(t *testing.T) {
	in := map[string]any{
		"W":  math.Inf(1),
		"Lq": math.Inf(-1),
		"L":  math.NaN(),
		"Class 1": map[string]float64{
			"W":  0.5,
			"Wq": math.Inf(1),
		},
		"name": "x",
	}
	out := SafeValues(in)
	assert.Equal(t, "infinity", out["W"])
	assert.Equal(t, "-infinity", out["Lq"])
	assert.Equal(t, "nan", out["L"])
	assert.Equal(t, map[string]any{"W": 0.5, "Wq": "infinity"}, out["Class 1"])
	assert.Equal(t, "x", out["name"])

	_, err := json.Marshal(out)
	assert.NoError(t, err)
}

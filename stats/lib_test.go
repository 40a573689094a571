package stats

import (
	"log"
	"math"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func assertApprox(t *testing.T, x float64, y float64) {
	t.Helper()
	dt2 := (x - y) * (x - y)
	eps2 := 1e-9
	assert.True(t, dt2 < eps2)
}

func TestSummary(t *testing.T) {
	vectors := [][]float64{
		{2},
		{1, 2, 3},
		{1, 2, 3, 4, 5},
		{5, 5, 5},
	}

	avg := func(xs []float64) float64 {
		sum := 0.0
		for _, x := range xs {
			sum += x
		}
		return sum / float64(len(xs))
	}
	stddev := func(xs []float64) float64 {
		mean := avg(xs)
		v := 0.0
		for _, x := range xs {
			v += (x - mean) * (x - mean)
		}
		return math.Sqrt(v / float64(len(xs)))
	}
	min := func(xs []float64) float64 {
		m := math.Inf(1)
		for _, x := range xs {
			if x < m {
				m = x
			}
		}
		return m
	}
	max := func(xs []float64) float64 {
		m := math.Inf(-1)
		for _, x := range xs {
			if x > m {
				m = x
			}
		}
		return m
	}

	for _, vector := range vectors {
		c := New()
		for _, x := range vector {
			c.Add(x)
		}
		st := c.Summary()

		log.Printf("vector %v", vector)
		log.Printf("%+v", st)
		assert.Equal(t, len(vector), st.Count)
		assert.Equal(t, min(vector), st.Min)
		assert.Equal(t, max(vector), st.Max)
		assertApprox(t, avg(vector), st.Avg)
		assertApprox(t, stddev(vector), st.StdDev)
	}
}

func TestSummaryEmpty(t *testing.T) {
	// All zeros, never NaN or Inf: the summary goes straight onto the wire.
	st := New().Summary()
	assert.Equal(t, Summary{}, st)
}

func TestAddSince(t *testing.T) {
	c := New()
	c.AddSince(time.Now().Add(-50 * time.Millisecond))

	st := c.Summary()
	assert.Equal(t, 1, st.Count)
	assert.True(t, st.Avg >= 0.05)
	assert.True(t, st.Avg < 5)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	r.Get("load").Add(1)
	r.Get("load").Add(3)
	r.Get("sample").Add(2)

	// Same name, same collector.
	assert.Equal(t, r.Get("load"), r.Get("load"))

	all := r.SnapshotAll()
	assert.Equal(t, 2, len(all))
	assert.Equal(t, 2, all["load"].Count)
	assertApprox(t, 2.0, all["load"].Avg)
	assert.Equal(t, 1, all["sample"].Count)
}

// Package balance measures how evenly rows are spread across shards.
package balance

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Significance is the p-value below which a distribution is reported as
// not uniform.
const Significance = 0.05

// Report summarizes per-shard row counts.
type Report struct {
	Shards int
	Rows   int64
	Empty  int

	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	// CV is the coefficient of variation, StdDev / Mean.
	CV float64

	// ChiSquare is Pearson's statistic against a uniform expectation,
	// with Shards-1 degrees of freedom.
	ChiSquare float64
	PValue    float64
}

// Uniform reports whether the counts are consistent with a uniform
// assignment at the Significance level.
func (r Report) Uniform() bool {
	return r.PValue >= Significance
}

// Analyze computes a Report from the row count of every shard, in ID
// order. Missing shards count as zero.
func Analyze(counts []int64) Report {
	r := Report{Shards: len(counts)}
	if len(counts) == 0 {
		return r
	}

	x := make([]float64, len(counts))
	for i, c := range counts {
		x[i] = float64(c)
		r.Rows += c
		if c == 0 {
			r.Empty++
		}
	}

	r.Mean = stat.Mean(x, nil)
	r.Min = floats.Min(x)
	r.Max = floats.Max(x)
	if len(x) > 1 {
		r.StdDev = stat.StdDev(x, nil)
	}
	if r.Mean > 0 {
		r.CV = r.StdDev / r.Mean
	}

	if len(x) < 2 || r.Rows == 0 {
		r.PValue = 1
		return r
	}
	for _, o := range x {
		d := o - r.Mean
		r.ChiSquare += d * d / r.Mean
	}
	r.PValue = distuv.ChiSquared{K: float64(len(x) - 1)}.Survival(r.ChiSquare)
	if math.IsNaN(r.PValue) {
		r.PValue = 0
	}
	return r
}

// Write prints the report in a human readable form.
func (r Report) Write(w io.Writer) error {
	verdict := "uniform"
	if !r.Uniform() {
		verdict = "skewed"
	}
	_, err := fmt.Fprintf(w,
		"shards:      %d (%d empty)\n"+
			"rows:        %d\n"+
			"per shard:   mean %.1f, stddev %.1f, min %.0f, max %.0f\n"+
			"cv:          %.3f\n"+
			"chi-square:  %.2f (p=%.4f, %s)\n",
		r.Shards, r.Empty, r.Rows,
		r.Mean, r.StdDev, r.Min, r.Max,
		r.CV,
		r.ChiSquare, r.PValue, verdict,
	)
	return err
}

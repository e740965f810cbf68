package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gosymreg/gpsym/genetic"
)

// Model wraps a fitted Regressor or Transformer plus the CLI-facing
// bookkeeping (variable names, fit duration, sample count) the teacher's
// Model kept alongside its forest.Classifier/forest.Regressor pair.
type Model struct {
	IsTransformer bool
	Reg           *genetic.Regressor
	Tr            *genetic.Transformer
	VarNames      []string
	fitTime       time.Duration
	nSample       int
}

// fitOptions collects the CLI flags that configure a Fit call.
type fitOptions struct {
	transformer    bool
	populationSize int
	generations    int
	tournamentSize int
	metric         string
	parsimony      float64
	parsimonyAuto  bool
	bootstrap      bool
	maxSamples     float64
	hallOfFame     int
	nComponents    int
	numJobs        int
	randomState    int64
	verbose        bool
	trigonometric  bool
}

func (m *Model) Fit(d *parsedInput, opt fitOptions, logger *zap.Logger) error {
	start := time.Now()

	cfgOpts := buildConfigOptions(opt)

	if opt.transformer {
		tr := genetic.NewTransformer(cfgOpts...)
		tr.Logger = logger
		if err := tr.Fit(d.X, d.Y, nil); err != nil {
			return err
		}
		m.Tr = tr
		m.IsTransformer = true
	} else {
		reg := genetic.NewRegressor(cfgOpts...)
		reg.Logger = logger
		if err := reg.Fit(d.X, d.Y, nil); err != nil {
			return err
		}
		m.Reg = reg
	}

	m.fitTime = time.Since(start)
	m.VarNames = d.VarNames
	m.nSample = len(d.X)
	return nil
}

func (m *Model) Predict(d *parsedInput) ([]string, error) {
	if m.IsTransformer {
		out, err := m.Tr.Transform(d.X)
		if err != nil {
			return nil, err
		}
		return formatMatrix(out), nil
	}

	pred, err := m.Reg.Predict(d.X)
	if err != nil {
		return nil, err
	}

	pStr := make([]string, len(pred))
	for i, v := range pred {
		pStr[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return pStr, nil
}

// formatMatrix flattens a transform output into one CSV-joined line per row.
func formatMatrix(m [][]float64) []string {
	out := make([]string, len(m))
	for i, row := range m {
		line := ""
		for j, v := range row {
			if j > 0 {
				line += ","
			}
			line += strconv.FormatFloat(v, 'f', -1, 64)
		}
		out[i] = line
	}
	return out
}

func (m *Model) Save(w io.Writer) error {
	if m.IsTransformer {
		return m.Tr.Save(w)
	}
	return m.Reg.Save(w)
}

func (m *Model) Load(r io.Reader, isTransformer bool) error {
	m.IsTransformer = isTransformer
	if isTransformer {
		m.Tr = &genetic.Transformer{}
		return m.Tr.Load(r)
	}
	m.Reg = &genetic.Regressor{}
	return m.Reg.Load(r)
}

func (m *Model) Report(w io.Writer) {
	fmt.Fprintf(w, "Fit using %d examples in %.2f seconds\n", m.nSample, m.fitTime.Seconds())
	fmt.Fprintf(w, "\n")

	if m.IsTransformer {
		m.reportTransformer(w)
		return
	}
	m.reportRegressor(w)
}

func (m *Model) reportRegressor(w io.Writer) {
	fmt.Fprintf(w, "Best program\n")
	fmt.Fprintf(w, "------------\n")
	fmt.Fprintf(w, "%s\n", m.Reg.Best.String())
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Generation history\n")
	fmt.Fprintf(w, "------------------\n")
	for _, g := range m.Reg.History.Generations {
		fmt.Fprintf(w, "gen %-4d avg length %-8.2f avg fitness %-16.6f best fitness %-16.6f\n",
			g.Gen, g.AvgLength, g.AvgFitness, g.BestFitness)
	}
}

func (m *Model) reportTransformer(w io.Writer) {
	fmt.Fprintf(w, "Components (%d)\n", len(m.Tr.Components))
	fmt.Fprintf(w, "---------------\n")
	for i, c := range m.Tr.Components {
		fmt.Fprintf(w, "%d: %s\n", i, c.String())
	}
}

package genetic

import (
	"bytes"
	"encoding/gob"
	"io"
	"time"

	"github.com/gosymreg/gpsym/function"
	"github.com/gosymreg/gpsym/program"
)

// FittedRegressor is the gob-encodable unit a fitted Regressor's Save/Load
// round-trips (SPEC_FULL.md §3): the best program's tokens (the function
// registry itself cannot cross a gob stream, since Function.op is an
// unexported closure, so only the Trigonometric flag needed to rebuild it is
// kept), the bounded per-generation program summaries, the resolved
// configuration, and how long the fit took.
type FittedRegressor struct {
	NFeatures   int
	Best        *program.Program
	History     [][]ProgramSummary
	Config      *Config
	FitDuration time.Duration
}

// fittedRegressorWire is FittedRegressor's actual wire format: Best is
// flattened to its tokens/const range plus a trigonometric flag, since
// program.Program and Config both embed function.Set values whose
// Function.op closures gob silently drops, leaving a Program that would
// panic on Execute once decoded.
type fittedRegressorWire struct {
	Tokens        []program.Token
	NFeatures     int
	ConstRange    [2]float64
	Trigonometric bool
	History       [][]ProgramSummary
	Config        Config
	FitDuration   time.Duration
}

// GobEncode implements gob.GobEncoder.
func (f *FittedRegressor) GobEncode() ([]byte, error) {
	w := fittedRegressorWire{
		NFeatures:   f.NFeatures,
		History:     f.History,
		FitDuration: f.FitDuration,
	}
	if f.Best != nil {
		w.Tokens = f.Best.Tokens
		w.ConstRange = f.Best.ConstRange
	}
	if f.Config != nil {
		w.Trigonometric = f.Config.Trigonometric
		w.Config = *f.Config
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder, rebuilding the function registry from
// the persisted Trigonometric flag before reconstructing Best.
func (f *FittedRegressor) GobDecode(data []byte) error {
	var w fittedRegressorWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}

	funcs := function.DefaultSet(w.Trigonometric)
	best, err := program.New(w.Tokens, funcs, w.NFeatures, w.ConstRange)
	if err != nil {
		return err
	}

	cfg := w.Config
	cfg.Trigonometric = w.Trigonometric
	cfg.Funcs = funcs

	f.NFeatures = w.NFeatures
	f.Best = best
	f.History = w.History
	f.Config = &cfg
	f.FitDuration = w.FitDuration
	return nil
}

// FittedTransformer is FittedRegressor's transformer-mode counterpart: one
// token sequence per retained component instead of a single Best program.
type FittedTransformer struct {
	NFeatures   int
	Components  []*program.Program
	History     [][]ProgramSummary
	Config      *Config
	FitDuration time.Duration
}

type fittedTransformerWire struct {
	ComponentTokens [][]program.Token
	NFeatures       int
	ConstRange      [2]float64
	Trigonometric   bool
	History         [][]ProgramSummary
	Config          Config
	FitDuration     time.Duration
}

// GobEncode implements gob.GobEncoder.
func (f *FittedTransformer) GobEncode() ([]byte, error) {
	w := fittedTransformerWire{
		NFeatures:   f.NFeatures,
		History:     f.History,
		FitDuration: f.FitDuration,
	}
	for _, c := range f.Components {
		w.ComponentTokens = append(w.ComponentTokens, c.Tokens)
		w.ConstRange = c.ConstRange
	}
	if f.Config != nil {
		w.Trigonometric = f.Config.Trigonometric
		w.Config = *f.Config
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (f *FittedTransformer) GobDecode(data []byte) error {
	var w fittedTransformerWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}

	funcs := function.DefaultSet(w.Trigonometric)
	components := make([]*program.Program, len(w.ComponentTokens))
	for i, toks := range w.ComponentTokens {
		p, err := program.New(toks, funcs, w.NFeatures, w.ConstRange)
		if err != nil {
			return err
		}
		components[i] = p
	}

	cfg := w.Config
	cfg.Trigonometric = w.Trigonometric
	cfg.Funcs = funcs

	f.NFeatures = w.NFeatures
	f.Components = components
	f.History = w.History
	f.Config = &cfg
	f.FitDuration = w.FitDuration
	return nil
}

// Save writes the fitted regressor's full state — best program, bounded
// history, resolved config, and fit duration — to w in gob form, mirroring
// the teacher's Model.Save.
func (r *Regressor) Save(w io.Writer) error {
	if r.Best == nil {
		return configErrorf("save called before fit")
	}
	fitted := &FittedRegressor{
		NFeatures:   r.nFeatures,
		Best:        r.Best,
		Config:      r.cfg,
		FitDuration: r.FitDuration,
	}
	if r.History != nil {
		fitted.History = r.History.Populations
	}
	return gob.NewEncoder(w).Encode(fitted)
}

// Load restores a fitted regressor from a stream written by Save.
func (r *Regressor) Load(rd io.Reader) error {
	var fitted FittedRegressor
	if err := gob.NewDecoder(rd).Decode(&fitted); err != nil {
		return err
	}

	r.Best = fitted.Best
	r.nFeatures = fitted.NFeatures
	r.cfg = fitted.Config
	r.FitDuration = fitted.FitDuration
	if fitted.History != nil {
		r.History = &History{Populations: fitted.History}
	}
	return nil
}

// Save writes the fitted transformer's full state to w in gob form.
func (t *Transformer) Save(w io.Writer) error {
	if t.Components == nil {
		return configErrorf("save called before fit")
	}
	fitted := &FittedTransformer{
		NFeatures:   t.nFeatures,
		Components:  t.Components,
		Config:      t.cfg,
		FitDuration: t.FitDuration,
	}
	if t.History != nil {
		fitted.History = t.History.Populations
	}
	return gob.NewEncoder(w).Encode(fitted)
}

// Load restores a fitted transformer from a stream written by Save.
func (t *Transformer) Load(rd io.Reader) error {
	var fitted FittedTransformer
	if err := gob.NewDecoder(rd).Decode(&fitted); err != nil {
		return err
	}

	t.Components = fitted.Components
	t.nFeatures = fitted.NFeatures
	t.cfg = fitted.Config
	t.FitDuration = fitted.FitDuration
	if fitted.History != nil {
		t.History = &History{Populations: fitted.History}
	}
	return nil
}

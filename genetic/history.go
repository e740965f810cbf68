package genetic

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosymreg/gpsym/fitness"
)

// GenerationRecord summarizes one completed generation: population-average
// and best-individual length/fitness, the best individual's raw and OOB
// fitness, and wall-clock spent.
type GenerationRecord struct {
	Gen int

	AvgLength  float64
	AvgFitness float64

	BestIndex      int
	BestLength     int
	BestFitness    float64
	BestRawFitness float64
	BestHasOOB     bool
	BestOOBFitness float64

	Elapsed time.Duration
}

// ProgramSummary captures one individual's fitness bookkeeping without its
// token sequence, keeping serialized history bounded (SPEC_FULL.md §3)
// regardless of how large PopulationSize or Generations are.
type ProgramSummary struct {
	Length     int
	Fitness    float64
	RawFitness float64
	HasOOB     bool
	OOBFitness float64
}

// summarizePopulation reduces a generation's individuals to their
// ProgramSummary, dropping the program tokens themselves.
func summarizePopulation(population []*Individual) []ProgramSummary {
	out := make([]ProgramSummary, len(population))
	for i, ind := range population {
		out[i] = ProgramSummary{
			Length:     ind.Program.Length(),
			Fitness:    ind.Fitness,
			RawFitness: ind.RawFitness,
			HasOOB:     ind.HasOOB,
			OOBFitness: ind.OOBFitness,
		}
	}
	return out
}

// History accumulates the record of an evolutionary run: per-generation
// summaries, a bounded per-program summary of every generation's population,
// the final population, and (if Verbose was set) the rendered progress
// report.
type History struct {
	RunID           uuid.UUID
	Generations     []GenerationRecord
	Populations     [][]ProgramSummary
	FinalPopulation []*Individual
	Verbose         []string
}

// WriteVerbose writes the accumulated verbose report to w, one line per
// call to appendVerboseLine plus the three header lines already included.
func (h *History) WriteVerbose(w io.Writer) error {
	for _, line := range h.Verbose {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// columnWidths are the exact per-field widths spec.md §6 mandates for:
// Gen, Length (pop avg), Fitness (pop avg), Length (best), Fitness (best),
// Raw Fitness, OOB Fitness, Time Left.
var columnWidths = [8]int{4, 8, 16, 8, 16, 16, 16, 10}

func totalWidth() int {
	t := 0
	for _, w := range columnWidths {
		t += w
	}
	return t
}

func headerLines() []string {
	groupBanner := fmt.Sprintf("%-*s%-*s%-*s%-*s",
		columnWidths[0],
		"",
		columnWidths[1]+columnWidths[2],
		"Population Average",
		columnWidths[3]+columnWidths[4]+columnWidths[5]+columnWidths[6],
		"Best Individual",
		columnWidths[7],
		"",
	)

	columnNames := fmt.Sprintf("%*s%*s%*s%*s%*s%*s%*s%*s",
		columnWidths[0], "Gen",
		columnWidths[1], "Length",
		columnWidths[2], "Fitness",
		columnWidths[3], "Length",
		columnWidths[4], "Fitness",
		columnWidths[5], "Raw Fitness",
		columnWidths[6], "OOB Fitness",
		columnWidths[7], "Time Left",
	)

	rule := strings.Repeat("-", totalWidth())

	return []string{groupBanner, columnNames, rule}
}

// appendVerboseLine renders rec's data line, seeding the three header lines
// on the first call. totalGenerations is used only to project a time-left
// estimate from the generations elapsed so far.
func (h *History) appendVerboseLine(rec GenerationRecord, totalGenerations int) {
	if len(h.Verbose) == 0 {
		h.Verbose = append(h.Verbose, headerLines()...)
	}

	oob := "N/A"
	if rec.BestHasOOB {
		oob = fmt.Sprintf("%.6f", rec.BestOOBFitness)
	}

	remaining := totalGenerations - rec.Gen - 1
	timeLeft := time.Duration(remaining) * rec.Elapsed

	line := fmt.Sprintf("%*d%*.2f%*.6f%*d%*.6f%*.6f%*s%*s",
		columnWidths[0], rec.Gen,
		columnWidths[1], rec.AvgLength,
		columnWidths[2], rec.AvgFitness,
		columnWidths[3], rec.BestLength,
		columnWidths[4], rec.BestFitness,
		columnWidths[5], rec.BestRawFitness,
		columnWidths[6], oob,
		columnWidths[7], timeLeft.Round(time.Second).String(),
	)

	h.Verbose = append(h.Verbose, line)
}

// summarizeGeneration reduces a completed population to its GenerationRecord.
func summarizeGeneration(gen int, population []*Individual, greaterIsBetter bool, elapsed time.Duration) GenerationRecord {
	rec := GenerationRecord{Gen: gen, Elapsed: elapsed}

	var lenSum, fitSum float64
	bestIdx := 0
	for i, ind := range population {
		lenSum += float64(ind.Program.Length())
		fitSum += ind.Fitness
		if fitness.Better(ind.Fitness, population[bestIdx].Fitness, greaterIsBetter) {
			bestIdx = i
		}
	}

	n := float64(len(population))
	rec.AvgLength = lenSum / n
	rec.AvgFitness = fitSum / n

	best := population[bestIdx]
	rec.BestIndex = bestIdx
	rec.BestLength = best.Program.Length()
	rec.BestFitness = best.Fitness
	rec.BestRawFitness = best.RawFitness
	rec.BestHasOOB = best.HasOOB
	rec.BestOOBFitness = best.OOBFitness

	return rec
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataFile       string
	modelFile      string
	predictionFile string
	transformer    bool
	runProfile     bool

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
	numWorkers     int
	randomState    int64
	verbose        bool
	trigonometric  bool
)

func main() {
	root := &cobra.Command{
		Use:   "gpsym",
		Short: "gpsym evolves symbolic regression programs by genetic programming",
	}

	root.AddCommand(newFitCmd(), newPredictCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "evolve a program (or a transformer's feature set) from training data",
		RunE:  runFit,
	}

	flags := cmd.Flags()
	flags.StringVar(&dataFile, "data", "", "csv file with training data, target in column 1")
	flags.StringVar(&modelFile, "model", "gpsym.model", "file to write the fitted model")
	flags.BoolVar(&transformer, "transformer", false, "fit a feature-construction transformer instead of a single regressor")
	flags.BoolVar(&runProfile, "profile", false, "cpu profile")

	flags.IntVar(&populationSize, "population-size", 1000, "programs per generation")
	flags.IntVar(&generations, "generations", 20, "number of generations to evolve")
	flags.IntVar(&tournamentSize, "tournament-size", 20, "programs sampled per tournament")
	flags.StringVar(&metric, "metric", "mean_absolute_error", "fitness metric")
	flags.Float64Var(&parsimony, "parsimony-coefficient", 0.001, "fixed parsimony coefficient; ignored if --parsimony-auto is set")
	flags.BoolVar(&parsimonyAuto, "parsimony-auto", false, "compute the parsimony coefficient adaptively each generation")
	flags.BoolVar(&bootstrap, "bootstrap", false, "bootstrap resample rows per individual, scoring on the out-of-bag rows")
	flags.Float64Var(&maxSamples, "max-samples", 1.0, "fraction of rows used per individual evaluation")
	flags.IntVar(&hallOfFame, "hall-of-fame", 100, "top individuals retained for transformer mode's decorrelation pass")
	flags.IntVar(&nComponents, "n-components", 10, "components a transformer emits")
	flags.IntVar(&numWorkers, "workers", 1, "number of parallel workers per generation")
	flags.Int64Var(&randomState, "seed", 0, "master random seed")
	flags.BoolVar(&verbose, "verbose", false, "print a per-generation progress report")
	flags.BoolVar(&trigonometric, "trig", false, "include sin/cos/tan in the function set")

	return cmd
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "predict (or transform) rows from a fitted model",
		RunE:  runPredict,
	}

	flags := cmd.Flags()
	flags.StringVar(&dataFile, "data", "", "csv file with rows to predict, no target column")
	flags.StringVar(&modelFile, "model", "gpsym.model", "file to read the fitted model from")
	flags.StringVar(&predictionFile, "predictions", "", "output file for predictions")
	flags.BoolVar(&transformer, "transformer", false, "the model file holds a fitted transformer")

	return cmd
}

func runFit(cmd *cobra.Command, args []string) error {
	if numWorkers > 1 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	if runProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	f, err := os.Open(dataFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dataFile, err)
	}
	defer f.Close()

	d, err := parseCSV(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", dataFile, err)
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}
	defer logger.Sync()

	opt := fitOptions{
		transformer:    transformer,
		populationSize: populationSize,
		generations:    generations,
		tournamentSize: tournamentSize,
		metric:         metric,
		parsimony:      parsimony,
		parsimonyAuto:  parsimonyAuto,
		bootstrap:      bootstrap,
		maxSamples:     maxSamples,
		hallOfFame:     hallOfFame,
		nComponents:    nComponents,
		numJobs:        numWorkers,
		randomState:    randomState,
		verbose:        verbose,
		trigonometric:  trigonometric,
	}

	m := &Model{}
	if err := m.Fit(d, opt, logger); err != nil {
		return err
	}

	out, err := os.Create(modelFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", modelFile, err)
	}
	if err := m.Save(out); err != nil {
		out.Close()
		return fmt.Errorf("writing model to %s: %w", modelFile, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing model to %s: %w", modelFile, err)
	}

	m.Report(os.Stdout)

	if m.Reg != nil && m.Reg.History.Verbose != nil {
		m.Reg.History.WriteVerbose(os.Stdout)
	}
	if m.Tr != nil && m.Tr.History.Verbose != nil {
		m.Tr.History.WriteVerbose(os.Stdout)
	}

	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	m, err := os.Open(modelFile)
	if err != nil {
		return fmt.Errorf("opening model %s: %w", modelFile, err)
	}
	defer m.Close()

	model := &Model{}
	if err := model.Load(m, transformer); err != nil {
		return fmt.Errorf("loading model %s: %w", modelFile, err)
	}

	f, err := os.Open(dataFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dataFile, err)
	}
	defer f.Close()

	d, err := parseFeatureCSV(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", dataFile, err)
	}

	pred, err := model.Predict(d)
	if err != nil {
		return err
	}

	out, err := os.Create(predictionFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", predictionFile, err)
	}
	defer out.Close()

	return writePred(out, pred)
}

// writePred writes one prediction (or transform row) per line, mirroring
// the teacher's writePred.
func writePred(w io.Writer, prediction []string) error {
	wtr := bufio.NewWriter(w)

	for _, pred := range prediction {
		if _, err := wtr.WriteString(pred); err != nil {
			return err
		}
		if err := wtr.WriteByte('\n'); err != nil {
			return err
		}
	}

	return wtr.Flush()
}

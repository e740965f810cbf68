package main

import "github.com/gosymreg/gpsym/genetic"

// buildConfigOptions maps CLI flags onto genetic.Option values. Options that
// are mutually exclusive on the Config (auto vs. fixed parsimony) branch
// here rather than forcing the caller to reason about precedence.
func buildConfigOptions(opt fitOptions) []genetic.Option {
	cfgOpts := []genetic.Option{
		genetic.PopulationSize(opt.populationSize),
		genetic.Generations(opt.generations),
		genetic.TournamentSize(opt.tournamentSize),
		genetic.Metric(opt.metric),
		genetic.HallOfFame(opt.hallOfFame),
		genetic.NComponents(opt.nComponents),
		genetic.NumJobs(opt.numJobs),
		genetic.RandomState(opt.randomState),
		genetic.MaxSamples(opt.maxSamples),
	}

	if opt.parsimonyAuto {
		cfgOpts = append(cfgOpts, genetic.ParsimonyAuto())
	} else {
		cfgOpts = append(cfgOpts, genetic.ParsimonyCoeff(opt.parsimony))
	}

	if opt.bootstrap {
		cfgOpts = append(cfgOpts, genetic.Bootstrap())
	}
	if opt.verbose {
		cfgOpts = append(cfgOpts, genetic.Verbose())
	}
	if opt.trigonometric {
		cfgOpts = append(cfgOpts, genetic.Trigonometric())
	}

	return cfgOpts
}

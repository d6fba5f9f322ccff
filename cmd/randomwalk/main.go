package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/go-markov/chain/internal/engineopts"
	"github.com/go-markov/chain/internal/testutils"
	"github.com/go-markov/chain/sdk/markov"
)

func main() {
	var (
		steps    = flag.Int("steps", 10, "Number of steps to advance the chain")
		start    = flag.Int("start", 0, "Starting state of the random walk")
		scenario = flag.String("scenario", "", "Path to a YAML n-cycle scenario config; overrides -steps/-start and walks a cycle instead")
	)
	flag.Parse()

	var (
		e         *markov.Engine[int, string]
		err       error
		name      string
		runSteps  int
		finalTime uint64
	)

	if *scenario != "" {
		cfg, loadErr := LoadScenarioConfig(*scenario)
		if loadErr != nil {
			log.Fatalf("failed to load scenario: %v", loadErr)
		}
		cycle := testutils.NCycle{N: cfg.States}
		e, err = markov.New(0, cycle.Generator(), engineopts.Options{})
		name = cfg.Name
		runSteps = cfg.Steps
	} else {
		e, err = markov.New(*start, testutils.RandomWalkGenerator(), engineopts.Options{})
		name = fmt.Sprintf("random walk from %d", *start)
		runSteps = *steps
	}
	if err != nil {
		log.Fatalf("failed to construct engine: %v", err)
	}

	for i := 0; i < runSteps; i++ {
		if _, err := e.NextStep(context.Background()); err != nil {
			log.Fatalf("step %d failed: %v", i+1, err)
		}
	}
	finalTime = e.Time()

	dist, err := e.ProbabilityDistribution(finalTime)
	if err != nil {
		log.Fatalf("failed to read final distribution: %v", err)
	}

	fmt.Printf("%s after %d steps:\n", name, runSteps)
	for state, p := range dist {
		fmt.Printf("  state %d: p=%.6f\n", state, p)
	}

	h, err := e.Entropy(finalTime)
	if err != nil {
		log.Fatalf("failed to compute entropy: %v", err)
	}
	fmt.Printf("entropy: %.6f bits\n", h)
	fmt.Printf("known states: %d\n", len(e.KnownStates()))
}

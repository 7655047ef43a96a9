// Package generator produces random neighborhood populations and station
// counts for partition trials.
package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidRanges is returned when a range is empty or allows non-positive values.
var ErrInvalidRanges = errors.New("generator ranges must be positive and ordered")

// Range is an inclusive interval of integers.
type Range struct {
	Min int
	Max int
}

func (r Range) valid() bool {
	return r.Min >= 1 && r.Min <= r.Max
}

func (r Range) draw(rng *rand.Rand) int {
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

// Ranges bounds every value the generator draws.
type Ranges struct {
	Stations      Range
	Neighborhoods Range
	Population    Range
}

// DefaultRanges returns 2-5 stations, 2-99 neighborhoods and 1-500 inhabitants per neighborhood.
func DefaultRanges() Ranges {
	return Ranges{
		Stations:      Range{Min: 2, Max: 5},
		Neighborhoods: Range{Min: 2, Max: 99},
		Population:    Range{Min: 1, Max: 500},
	}
}

// Validate reports ErrInvalidRanges naming the first offending range.
func (r Ranges) Validate() error {
	switch {
	case !r.Stations.valid():
		return fmt.Errorf("%w: stations %d-%d", ErrInvalidRanges, r.Stations.Min, r.Stations.Max)
	case !r.Neighborhoods.valid():
		return fmt.Errorf("%w: neighborhoods %d-%d", ErrInvalidRanges, r.Neighborhoods.Min, r.Neighborhoods.Max)
	case !r.Population.valid():
		return fmt.Errorf("%w: population %d-%d", ErrInvalidRanges, r.Population.Min, r.Population.Max)
	}
	return nil
}

// Dataset is one trial input: how many stations exist and the population of each neighborhood.
type Dataset struct {
	Stations    int
	Populations []int
}

// Generator draws datasets from a seeded source. It is not safe for concurrent use.
type Generator struct {
	ranges Ranges
	rng    *rand.Rand
}

// New creates a Generator whose output is fully determined by seed.
func New(ranges Ranges, seed uint64) (*Generator, error) {
	if err := ranges.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		ranges: ranges,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Generate draws the neighborhood count first, then the station count, then every population.
func (g *Generator) Generate() Dataset {
	neighborhoods := g.ranges.Neighborhoods.draw(g.rng)
	ds := Dataset{
		Stations:    g.ranges.Stations.draw(g.rng),
		Populations: make([]int, neighborhoods),
	}
	for i := range ds.Populations {
		ds.Populations[i] = g.ranges.Population.draw(g.rng)
	}
	return ds
}

package generator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateRespectsRanges(t *testing.T) {
	t.Parallel()

	ranges := DefaultRanges()
	gen, err := New(ranges, 11)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		ds := gen.Generate()
		require.GreaterOrEqual(t, ds.Stations, ranges.Stations.Min)
		require.LessOrEqual(t, ds.Stations, ranges.Stations.Max)
		require.GreaterOrEqual(t, len(ds.Populations), ranges.Neighborhoods.Min)
		require.LessOrEqual(t, len(ds.Populations), ranges.Neighborhoods.Max)
		for _, p := range ds.Populations {
			require.GreaterOrEqual(t, p, ranges.Population.Min)
			require.LessOrEqual(t, p, ranges.Population.Max)
		}
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	t.Parallel()

	a, err := New(DefaultRanges(), 99)
	require.NoError(t, err)
	b, err := New(DefaultRanges(), 99)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.Equal(t, a.Generate(), b.Generate())
	}
}

func TestGenerateFixedRanges(t *testing.T) {
	t.Parallel()

	gen, err := New(Ranges{
		Stations:      Range{Min: 4, Max: 4},
		Neighborhoods: Range{Min: 3, Max: 3},
		Population:    Range{Min: 10, Max: 10},
	}, 1)
	require.NoError(t, err)

	require.Equal(t, Dataset{Stations: 4, Populations: []int{10, 10, 10}}, gen.Generate())
}

func TestNewRejectsInvalidRanges(t *testing.T) {
	t.Parallel()

	cases := map[string]Ranges{
		"zero stations":       {Stations: Range{0, 3}, Neighborhoods: Range{1, 2}, Population: Range{1, 2}},
		"inverted":            {Stations: Range{1, 3}, Neighborhoods: Range{5, 2}, Population: Range{1, 2}},
		"negative population": {Stations: Range{1, 3}, Neighborhoods: Range{1, 2}, Population: Range{-4, 2}},
	}
	for name, ranges := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(ranges, 0)
			require.True(t, errors.Is(err, ErrInvalidRanges), "got %v", err)
		})
	}
}

package partition

import (
	"fmt"
	"slices"

	"github.com/ecodeclub/ekit/queue"
)

type lptPartitioner struct{}

// New creates a Partitioner based on the longest-processing-time-first
// heuristic: heaviest weight first, always into the lightest bin.
func New() Partitioner {
	return &lptPartitioner{}
}

// Partition is a shorthand for New().Partition.
func Partition(weights []int, binCount int) (Result, error) {
	return New().Partition(weights, binCount)
}

func (p *lptPartitioner) Partition(weights []int, binCount int) (Result, error) {
	if binCount < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidInput, binCount)
	}

	sorted := slices.Clone(weights)
	slices.SortStableFunc(sorted, func(a, b int) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		default:
			return 0
		}
	})

	bins := make([]Bin, binCount)
	lightest := queue.NewConcurrentPriorityQueue[binLoad](binCount, compareBinLoad)
	for i := range bins {
		bins[i] = Bin{Index: i, Weights: []int{}}
		if err := lightest.Enqueue(binLoad{index: i}); err != nil {
			return Result{}, fmt.Errorf("seed bin queue: %w", err)
		}
	}

	for _, w := range sorted {
		next, err := lightest.Dequeue()
		if err != nil {
			return Result{}, fmt.Errorf("select bin: %w", err)
		}
		bin := &bins[next.index]
		bin.Weights = append(bin.Weights, w)
		bin.Load += w
		if err := lightest.Enqueue(binLoad{index: next.index, load: bin.Load}); err != nil {
			return Result{}, fmt.Errorf("requeue bin %d: %w", next.index, err)
		}
	}

	maxLoad := bins[0].Load
	for _, b := range bins[1:] {
		if b.Load > maxLoad {
			maxLoad = b.Load
		}
	}
	balanced := true
	for _, b := range bins {
		if b.Load != maxLoad {
			balanced = false
			break
		}
	}

	return Result{
		Bins:     bins,
		Balanced: balanced,
		MaxLoad:  maxLoad,
	}, nil
}

// binLoad is a queue entry; equal loads resolve to the lower index.
type binLoad struct {
	index int
	load  int
}

func compareBinLoad(a, b binLoad) int {
	switch {
	case a.load < b.load:
		return -1
	case a.load > b.load:
		return 1
	case a.index < b.index:
		return -1
	case a.index > b.index:
		return 1
	default:
		return 0
	}
}

package partition

// Bin holds the weights assigned to one station, in assignment order.
type Bin struct {
	Index   int
	Weights []int
	Load    int
}

// Result is the final state of every bin after a run.
// Balanced reports whether all bins ended with the same load.
type Result struct {
	Bins     []Bin
	Balanced bool
	MaxLoad  int
}

// Loads returns the load of every bin in index order.
func (r Result) Loads() []int {
	loads := make([]int, len(r.Bins))
	for i, b := range r.Bins {
		loads[i] = b.Load
	}
	return loads
}

// MinLoad returns the smallest bin load, or 0 when there are no bins.
func (r Result) MinLoad() int {
	if len(r.Bins) == 0 {
		return 0
	}
	low := r.Bins[0].Load
	for _, b := range r.Bins[1:] {
		if b.Load < low {
			low = b.Load
		}
	}
	return low
}

// TotalLoad returns the sum of all bin loads.
func (r Result) TotalLoad() int {
	total := 0
	for _, b := range r.Bins {
		total += b.Load
	}
	return total
}

// Spread is the gap between the heaviest and the lightest bin.
func (r Result) Spread() int {
	return r.MaxLoad - r.MinLoad()
}

// Partitioner describes the behaviour required from a weight partitioner.
type Partitioner interface {
	Partition(weights []int, binCount int) (Result, error)
}

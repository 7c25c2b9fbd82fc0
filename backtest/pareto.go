package backtest

import "sort"

// dominates reports whether a is at least as good as b on both axes
// and strictly better on one.
func dominates(a, b Result) bool {
	if a.WinRate < b.WinRate || a.TotalReturn < b.TotalReturn {
		return false
	}
	return a.WinRate > b.WinRate || a.TotalReturn > b.TotalReturn
}

// ParetoFrontier reduces sweep results to the non-dominated set over
// (win rate, total return), sorted by descending total return.
func ParetoFrontier(results []Result) []Result {
	var frontier []Result
	for i, candidate := range results {
		dominated := false
		for j, other := range results {
			if i == j {
				continue
			}
			if dominates(other, candidate) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, candidate)
		}
	}
	sort.Slice(frontier, func(i, j int) bool {
		if frontier[i].TotalReturn != frontier[j].TotalReturn {
			return frontier[i].TotalReturn > frontier[j].TotalReturn
		}
		return frontier[i].WinRate > frontier[j].WinRate
	})
	return frontier
}

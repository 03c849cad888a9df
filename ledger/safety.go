package ledger

// safe runs the classical finish-simulation over the current matrices:
// starting from work = available, repeatedly look for an unfinished task whose
// entire need fits into work; simulate it finishing by returning its
// allocation to work.  Passes repeat until one completes without progress,
// because freed units may unblock a task already passed over – a single
// linear sweep under-reports safety.
//
// Purely reads the matrices; callers hold l.mu.  O(tasks² × resources).
func (l *Ledger[R]) safe() bool {
	work := append([]int(nil), l.available...)
	finish := make([]bool, l.numTasks)

	remaining := l.numTasks
	for remaining > 0 {
		progressed := false
		for t := 0; t < l.numTasks; t++ {
			if finish[t] || !fits(l.need[t], work) {
				continue
			}
			for r := range work {
				work[r] += l.allocated[t][r]
			}
			finish[t] = true
			remaining--
			progressed = true
		}
		if !progressed {
			return false
		}
	}
	return true
}

// fits reports whether need is elementwise covered by work.
func fits(need, work []int) bool {
	for r := range need {
		if need[r] > work[r] {
			return false
		}
	}
	return true
}

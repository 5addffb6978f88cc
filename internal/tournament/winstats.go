package tournament

// WinStats accumulates the outcomes of every 100-game batch played between
// one ordered pair of models: p1Wins is model i's win count playing first,
// p2Wins is model j's win count playing second, ties is whatever's left.
// Mirrors bin/main.cpp's Tournament_Group win-stats cell exactly.
type WinStats struct {
	P1  int
	P2  int
	Tie int
}

// Total is the number of games recorded in this cell.
func (w WinStats) Total() int { return w.P1 + w.P2 + w.Tie }

// WinRate computes model i's overall win rate across the N×N matrix: the
// average, over every other model j, of two terms -- 100*p1/(p1+p2) from
// cell (i,j) and 100*p2/(p1+p2) from cell (j,i) -- skipping any term whose
// denominator is zero (no games played yet for that ordering), and
// dividing by however many terms were actually summed. Ported from
// Tournament_Group::winrates.
func WinRate(matrix [][]WinStats, i int) float64 {
	var sum float64
	var count int
	n := len(matrix)
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		if cell := matrix[i][j]; cell.P1+cell.P2 > 0 {
			sum += 100 * float64(cell.P1) / float64(cell.P1+cell.P2)
			count++
		}
		if cell := matrix[j][i]; cell.P1+cell.P2 > 0 {
			sum += 100 * float64(cell.P2) / float64(cell.P1+cell.P2)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// pruneIndices returns, in original order, the indices for which toErase is
// false. Ported line-for-line from Tournament_Group::erase_ns, which
// compacts several parallel vectors (the matrix's rows/columns and the
// model vector) by a single shared "to erase" mask while preserving the
// relative order of everything kept.
func pruneIndices(n int, toErase []bool) []int {
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !toErase[i] {
			keep = append(keep, i)
		}
	}
	return keep
}

// pruneMatrix rebuilds matrix restricted to keep, an ascending
// list of indices into the originals, preserving relative order.
func pruneMatrix(matrix [][]WinStats, keep []int) [][]WinStats {
	out := make([][]WinStats, len(keep))
	for a, ka := range keep {
		row := make([]WinStats, len(keep))
		for b, kb := range keep {
			row[b] = matrix[ka][kb]
		}
		out[a] = row
	}
	return out
}

// growMatrix returns a copy of matrix expanded to n×n, with every new
// row/column zero-valued -- the "grow the data matrix by appending zero
// rows/columns" step of repopulation.
func growMatrix(matrix [][]WinStats, n int) [][]WinStats {
	out := make([][]WinStats, n)
	for i := range out {
		out[i] = make([]WinStats, n)
		if i < len(matrix) {
			copy(out[i], matrix[i])
		}
	}
	return out
}

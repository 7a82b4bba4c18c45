package algo

import (
	"sort"

	"github.com/raporkit/rapor/schema"
)

// RankStudents assigns class ranks by overall average in descending order.
// Equal averages share a rank (1, 2, 2, 4). Students without an average get rank 0.
// The input slice is not reordered.
func RankStudents(students []schema.StudentSummary) map[string]int {
	idx := make([]int, 0, len(students))
	for i, s := range students {
		if s.OverallAverage != nil {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return *students[idx[a]].OverallAverage > *students[idx[b]].OverallAverage
	})

	ranks := make(map[string]int, len(students))
	for _, s := range students {
		ranks[s.StudentID] = 0
	}
	for pos, i := range idx {
		rank := pos + 1
		if pos > 0 {
			prev := students[idx[pos-1]]
			if *prev.OverallAverage == *students[i].OverallAverage {
				rank = ranks[prev.StudentID]
			}
		}
		ranks[students[i].StudentID] = rank
	}
	return ranks
}

package mdranker

import (
	"fmt"
	"math"

	"fulfilment/internal/app/domains/entity/etcandidate"
)

// fallbackPool 兜底候选池
var fallbackPool = []string{"REPL_001", "REPL_007", "REPL_015", "REPL_023", "REPL_042"}

// Fallback 确定性的兜底候选：分数严格不增，长度恰为 k
func Fallback(k int) []etcandidate.Candidate {
	out := make([]etcandidate.Candidate, 0, k)
	for i := 0; i < k; i++ {
		if i < len(fallbackPool) {
			out = append(out, etcandidate.Candidate{
				ProductCode: fallbackPool[i],
				Score:       round2(0.91 - 0.07*float64(i)),
			})
			continue
		}
		out = append(out, etcandidate.Candidate{
			ProductCode: fmt.Sprintf("REPL_%03d", 100+i),
			Score:       math.Max(0.1, round2(0.6-0.05*float64(i-len(fallbackPool)))),
		})
	}
	return out
}

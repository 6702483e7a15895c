package etcandidate

// Candidate 替代品候选（仅在决策过程中存在，不单独持久化）
type Candidate struct {
	ProductCode string  // 商品编码
	Score       float64 // 适配度 [0,1]
	Name        string  // 展示名称（可选）
}

// Clamp 将分数限制在 [0,1]
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

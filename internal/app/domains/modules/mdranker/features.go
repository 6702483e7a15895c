package mdranker

import "math"

// features 计算候选特征向量，每个分量都在 [0,1]
func features(src, cand *Product, onHand, desired float64) map[string]float64 {
	return map[string]float64{
		FeatureCategoryAffinity: categoryAffinity(src, cand),
		FeaturePriceDelta:       priceDelta(src.Price, cand.Price),
		FeatureUnitCompat:       unitCompat(src.Unit, cand.Unit),
		FeatureAcceptanceRate:   clamp01(cand.AcceptanceRate),
		FeatureAvailability:     availability(onHand, desired),
	}
}

func categoryAffinity(src, cand *Product) float64 {
	switch {
	case src.Category != "" && src.Category == cand.Category:
		return 1
	case src.Group() != "" && src.Group() == cand.Group():
		return 0.5
	default:
		return 0
	}
}

func priceDelta(srcPrice, candPrice float64) float64 {
	if srcPrice <= 0 {
		if candPrice <= 0 {
			return 1
		}
		return 0
	}
	return 1 - math.Min(1, math.Abs(candPrice-srcPrice)/srcPrice)
}

func unitCompat(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
}

func availability(onHand, desired float64) float64 {
	if onHand <= 0 {
		return 0
	}
	if desired <= 0 {
		return 1
	}
	return math.Min(1, onHand/desired)
}

// score σ(bias + Σ wᵢ·xᵢ)
func score(m *Model, x map[string]float64) float64 {
	z := m.Bias
	for _, name := range FeatureNames {
		z += m.Weights[name] * x[name]
	}
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// round2 保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

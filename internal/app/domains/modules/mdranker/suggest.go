package mdranker

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/domains/entity/etcandidate"
	"fulfilment/internal/app/pkg/errorx"
)

// Suggest 的 k 取值范围
const (
	DefaultSuggestK = 3
	MaxSuggestK     = 20
)

// Suggestion 替代推荐结果
type Suggestion struct {
	SKU             string
	Recommendations []etcandidate.Candidate
}

// Suggest 按 sku 推荐替代品，k 为 0 时取默认值
// orderContext 中的 quantity 作为期望数量，缺省为 1
func (r *Ranker) Suggest(ctx context.Context, sku string, k int, orderContext map[string]interface{}) (*Suggestion, error) {
	if k == 0 {
		k = DefaultSuggestK
	}
	if k < 1 || k > MaxSuggestK {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "k must be within [1,%d]", MaxSuggestK).
			WithDetail("k", "must be between 1 and 20")
	}

	recs, err := r.Rank(ctx, sku, desiredFromContext(orderContext), k)
	if err != nil {
		return nil, err
	}
	return &Suggestion{SKU: sku, Recommendations: recs}, nil
}

func desiredFromContext(orderContext map[string]interface{}) decimal.Decimal {
	one := decimal.NewFromInt(1)
	v, ok := orderContext["quantity"]
	if !ok {
		return one
	}
	var d decimal.Decimal
	switch t := v.(type) {
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return one
		}
		d = decimal.NewFromFloat(f)
	default:
		return one
	}
	if !d.IsPositive() {
		return one
	}
	return d
}

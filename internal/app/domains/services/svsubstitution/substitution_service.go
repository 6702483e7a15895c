package svsubstitution

import (
	"context"
	"strings"

	"fulfilment/internal/app/domains/modules/mdranker"
	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/logger"
)

// SuggestCmd 替代推荐请求
type SuggestCmd struct {
	SKU     string
	K       int
	Context map[string]interface{}
}

// Health 排序服务状态
type Health struct {
	Status       string
	CatalogSize  int
	ModelVersion string // 模型不可用时为空
}

// SubstitutionService 替代推荐服务
type SubstitutionService struct {
	ranker *mdranker.Ranker
	logger logger.Logger
}

// NewSubstitutionService 创建替代推荐服务
func NewSubstitutionService(ranker *mdranker.Ranker, log logger.Logger) *SubstitutionService {
	return &SubstitutionService{ranker: ranker, logger: log}
}

// Suggest 按 sku 推荐替代品
func (s *SubstitutionService) Suggest(ctx context.Context, cmd SuggestCmd) (*mdranker.Suggestion, error) {
	sku := strings.TrimSpace(cmd.SKU)
	if sku == "" {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "sku is required").
			WithDetail("sku", "is required")
	}
	suggestion, err := s.ranker.Suggest(ctx, sku, cmd.K, cmd.Context)
	if err != nil {
		return nil, err
	}
	s.logger.Debugf(ctx, "suggest %s: %d recommendations", sku, len(suggestion.Recommendations))
	return suggestion, nil
}

// Health 当前快照状态；模型缺失时仍可用（兜底候选）
func (s *SubstitutionService) Health() Health {
	h := Health{Status: "ok"}
	snap := s.ranker.Snapshot()
	if snap == nil {
		return h
	}
	if snap.Catalog != nil {
		h.CatalogSize = snap.Catalog.Len()
	}
	if snap.Model != nil {
		h.ModelVersion = snap.Model.Version
	}
	return h
}

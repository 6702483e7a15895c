package svsubstitution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfilment/internal/app/domains/modules/mdranker"
	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/logger"
)

func TestSuggest_FallbackWithoutModel(t *testing.T) {
	svc := NewSubstitutionService(mdranker.NewRanker(nil, logger.NewNop()), logger.NewNop())

	got, err := svc.Suggest(context.Background(), SuggestCmd{SKU: " MILK-1L "})
	require.NoError(t, err)
	assert.Equal(t, "MILK-1L", got.SKU)
	require.Len(t, got.Recommendations, mdranker.DefaultSuggestK)
	assert.Equal(t, "REPL_001", got.Recommendations[0].ProductCode)

	h := svc.Health()
	assert.Equal(t, "ok", h.Status)
	assert.Empty(t, h.ModelVersion)
}

func TestSuggest_Validation(t *testing.T) {
	svc := NewSubstitutionService(mdranker.NewRanker(nil, logger.NewNop()), logger.NewNop())

	_, err := svc.Suggest(context.Background(), SuggestCmd{SKU: ""})
	assert.Equal(t, errorx.KindValidation, errorx.KindOf(err))

	_, err = svc.Suggest(context.Background(), SuggestCmd{SKU: "MILK", K: 21})
	assert.Equal(t, errorx.KindValidation, errorx.KindOf(err))
}

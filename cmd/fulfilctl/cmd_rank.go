package main

import (
	"github.com/spf13/cobra"

	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/domains/services/svsubstitution"
)

func newRankCmd(opts *rootOptions) *cobra.Command {
	var (
		k   int
		qty float64
	)
	cmd := &cobra.Command{
		Use:   "rank <sku>",
		Short: "Rank substitute candidates for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranker, log, err := opts.newRanker()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			svc := svsubstitution.NewSubstitutionService(ranker, log)
			suggestion, err := svc.Suggest(cmd.Context(), svsubstitution.SuggestCmd{
				SKU:     args[0],
				K:       k,
				Context: map[string]interface{}{"quantity": qty},
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), response.FromSuggestion(suggestion))
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 3, "Number of candidates (1-20)")
	cmd.Flags().Float64Var(&qty, "qty", 1, "Desired quantity")
	return cmd
}

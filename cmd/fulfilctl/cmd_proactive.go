package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"fulfilment/internal/app/domains/apimodel/request"
	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/domains/modules/mdorder"
	"fulfilment/internal/app/domains/modules/mdpolicy"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/domains/modules/mdsession"
	"fulfilment/internal/app/domains/repo/rpevent"
	"fulfilment/internal/app/domains/repo/rporder"
	"fulfilment/internal/app/domains/services/svorder"
	"fulfilment/internal/app/infra/inventory"
)

func newProactiveCmd(opts *rootOptions) *cobra.Command {
	var (
		threshold   float64
		parallelism int
	)
	cmd := &cobra.Command{
		Use:   "proactive <items.json>",
		Short: "Resolve proactive shortage decisions for a batch of lines",
		Long: `Reads a proactive-call request body ({"items":[{"from":{...},"to":{...}}]})
and prints one decision per item in input order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read items: %w", err)
			}
			var req request.ProactiveRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("decode items: %w", err)
			}
			validate := validator.New()
			validate.SetTagName("binding")
			if err := validate.Struct(&req); err != nil {
				return fmt.Errorf("invalid items: %w", err)
			}

			ranker, log, err := opts.newRanker()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			events := rpevent.NewMemoryEventRepository()
			resolver := mdresolve.NewResolver(ranker,
				mdpolicy.New(mdpolicy.Config{AcceptThreshold: threshold}),
				mdresolve.Config{Parallelism: parallelism, K: 5}, log)
			svc := svorder.NewOrderService(
				mdorder.NewOrderModule(rporder.NewMemoryOrderRepository(events), events),
				resolver,
				mdsession.NewMemoryStore(mdsession.Config{}, nil),
				inventory.NewCatalogReader(ranker),
				log,
			)

			outcomes, err := svc.ApplyProactiveCheck(cmd.Context(), req.ToProactiveItems())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), response.FromLineOutcomes(outcomes))
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", mdpolicy.DefaultAcceptThreshold, "Candidate acceptance threshold")
	cmd.Flags().IntVar(&parallelism, "parallelism", 4, "Lines resolved concurrently")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fulfilment/internal/app/domains/modules/mdranker"
	"fulfilment/internal/app/pkg/logger"
)

// rootOptions 所有子命令共享的参数
type rootOptions struct {
	catalogPath string
	modelPath   string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "fulfilctl",
		Short:         "Offline tooling for shortage substitution",
		Long:          `fulfilctl runs the substitution ranker and the proactive shortage resolver against local catalog and model artifacts.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "config/catalog.yaml", "Product catalog artifact")
	root.PersistentFlags().StringVar(&opts.modelPath, "model", "config/model.yaml", "Ranker model artifact")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(newRankCmd(opts))
	root.AddCommand(newProactiveCmd(opts))
	return root
}

// newRanker 加载产物并创建 Ranker（库存取目录中的值）
func (o *rootOptions) newRanker() (*mdranker.Ranker, logger.Logger, error) {
	log, err := logger.NewZapLogger(o.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	snap, err := mdranker.LoadSnapshot(o.catalogPath, o.modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load ranker artifacts: %w", err)
	}
	return mdranker.NewRanker(snap, log), log, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

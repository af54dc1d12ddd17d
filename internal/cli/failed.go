package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rippledata/importer/internal/core/config"
	redisclient "github.com/rippledata/importer/internal/infra/redis"
)

var failedVerbose bool

// failedCmd prints the ledgers that failed terminally in past runs. The
// plain output is one index per line, suitable for --input.
var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List ledgers that failed in past runs",
	RunE:  runFailed,
}

func init() {
	failedCmd.Flags().BoolVarP(&failedVerbose, "verbose", "v", false, "include stage, reason and timestamp")
}

func runFailed(cmd *cobra.Command, args []string) error {
	var cfg *config.AppConfig
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
	} else {
		return fmt.Errorf("--config is required (redis address comes from the config file)")
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("no redis address configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rc, err := redisclient.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rc.Close()

	entries, err := redisclient.NewFailedLedgerQueue(rc).GetAll(ctx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if failedVerbose {
			fmt.Printf("%d\t%s\t%s\t%s\n",
				e.LedgerIndex, e.Stage, e.RecordedAt.Format(time.RFC3339), e.Reason)
		} else {
			fmt.Println(e.LedgerIndex)
		}
	}
	return nil
}

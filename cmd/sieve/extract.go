package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/sieve/engine"
	"github.com/use-agent/sieve/models"
)

var (
	extractMaxTier  string
	extractMarkdown bool
	extractTimeout  time.Duration
	extractHeadless bool
	extractExclude  []string
	extractTrace    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract one URL and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := models.ValidateURL(args[0]); err != nil {
			return err
		}
		switch extractMaxTier {
		case models.TierStatic, models.TierLight, models.TierFull, models.TierHard:
		default:
			return fmt.Errorf("unknown tier %q", extractMaxTier)
		}
		if extractHeadless {
			cfg.Browser.ForceHeadless = true
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, extractTimeout)
		defer cancel()

		out := newPipeline(cfg).controller.Run(ctx, &engine.Request{
			URL:              args[0],
			Markdown:         extractMarkdown,
			ExcludeSelectors: extractExclude,
			Readability:      cfg.Extract.Readability,
		}, extractMaxTier)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if extractTrace {
			return enc.Encode(models.ExtractResponse{
				Success: true,
				Result:  out.Result,
				Trace:   out.Trace,
				Timing:  out.Timing,
			})
		}
		return enc.Encode(out.Result)
	},
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractMaxTier, "max-tier", models.TierHard, "highest tier to escalate to (static, light, full, hard)")
	f.BoolVar(&extractMarkdown, "markdown", false, "include markdown for every section")
	f.DurationVar(&extractTimeout, "timeout", 120*time.Second, "overall extraction timeout")
	f.BoolVar(&extractHeadless, "headless", false, "run every browser tier headless")
	f.StringSliceVar(&extractExclude, "exclude", nil, "CSS selectors removed before segmentation")
	f.BoolVar(&extractTrace, "trace", false, "wrap the result with the tier trace and timing")
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/perfscale/llm-apiperf/pkg/archive"
	"github.com/perfscale/llm-apiperf/pkg/config"
	"github.com/perfscale/llm-apiperf/pkg/drivers"
	log "github.com/perfscale/llm-apiperf/pkg/logging"
	"github.com/perfscale/llm-apiperf/pkg/prober"
	"github.com/perfscale/llm-apiperf/pkg/results"
)

var (
	cfgfile       string
	sourceRegion  string
	targetRegion  string
	modelID       string
	directModelID string
	apiKey        string
	prompt        string
	id            string
	iterations    int
	maxTokens     int
	interval      int
	compare       bool
	jsonOut       bool
	debug         bool
)

var rootCmd = &cobra.Command{
	Use:   "llm-apiperf",
	Short: "A tool to measure and compare LLM completion latency over Bedrock and the direct Anthropic API",
	Run: func(cmd *cobra.Command, args []string) {

		uid := id
		if len(uid) < 1 {
			uid = uuid.New().String()
		}

		if jsonOut {
			log.SetError()
		}
		if debug {
			log.SetDebug()
		}

		cfg := config.Default()
		if len(cfgfile) > 0 {
			c, err := config.ParseConf(cfgfile)
			if err != nil {
				log.Error(err)
				os.Exit(1)
			}
			cfg = c
		}
		// Flags set on the command line win over the config file.
		flags := cmd.Flags()
		if flags.Changed("source-region") {
			cfg.SourceRegion = sourceRegion
		}
		if flags.Changed("target-region") {
			cfg.TargetRegion = targetRegion
		}
		if flags.Changed("model-id") {
			cfg.ModelID = modelID
		}
		if flags.Changed("direct-model-id") {
			cfg.DirectModelID = directModelID
		}
		if flags.Changed("iterations") {
			cfg.Iterations = iterations
		}
		if flags.Changed("max-tokens") {
			cfg.MaxTokens = maxTokens
		}
		if flags.Changed("interval") {
			cfg.Interval = interval
		}
		if flags.Changed("prompt") {
			cfg.Prompt = prompt
		}
		if compare {
			cfg.Compare = true
		}
		if err := config.Validate(cfg); err != nil {
			log.Error(err)
			os.Exit(1)
		}

		// The credential check happens before any request is issued; a
		// missing key is the only condition that aborts the process.
		if cfg.Compare {
			key, err := config.ResolveAPIKey(apiKey)
			if err != nil {
				log.Error(err)
				os.Exit(1)
			}
			cfg.APIKey = key
		}

		ctx := context.Background()
		pause := time.Duration(cfg.Interval) * time.Second

		gateway, err := drivers.NewDriver(ctx, "bedrock", cfg)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}
		log.Infof("🌍 Bedrock latency test from %s to %s (run %s)", cfg.SourceRegion, cfg.TargetRegion, uid)
		gatewayRun := prober.Run(ctx, gateway, cfg.Prompt, cfg.Iterations, pause, !jsonOut)
		gatewaySum, err := results.Aggregate(gatewayRun)
		if err != nil {
			log.Warnf("😥 %s path: %v", gateway.Name(), err)
		}
		total := gatewayRun.Attempts()

		var directSum *results.Summary
		var rows []results.Row
		if cfg.Compare {
			direct, err := drivers.NewDriver(ctx, "anthropic", cfg)
			if err != nil {
				log.Error(err)
				os.Exit(1)
			}
			directRun := prober.Run(ctx, direct, cfg.Prompt, cfg.Iterations, pause, !jsonOut)
			total += directRun.Attempts()
			directSum, err = results.Aggregate(directRun)
			if err != nil {
				log.Warnf("😥 %s path: %v", direct.Name(), err)
			}
			rows, err = results.Compare(gatewaySum, directSum)
			if err != nil {
				log.Warnf("😥 %v", err)
			}
		}

		meta := archive.Meta{UUID: uid, Timestamp: time.Now(), TotalRequests: total}

		if jsonOut {
			if err := archive.WriteJSONResult(meta, gatewaySum, directSum); err != nil {
				log.Error(err)
			}
		} else {
			results.ShowSummary(gatewaySum, directSum)
			if rows != nil {
				results.ShowComparison(gatewaySum, directSum, rows)
			}
		}

		if path, err := archive.WriteCSVResult(meta, gatewaySum, directSum); err != nil {
			log.Errorf("Error writing CSV archive: %v", err)
		} else {
			log.Infof("CSV archive written to %s", path)
		}

		if cfg.Compare {
			path, err := archive.WriteXLSX(gatewaySum, directSum, rows, meta)
			if err != nil {
				archive.FallbackToConsole(err, gatewaySum, directSum)
			} else {
				log.Infof("Results saved to %s", path)
			}
		}
	},
}

func main() {
	rootCmd.Flags().StringVar(&cfgfile, "config", "", "Optional YAML file carrying run defaults")
	rootCmd.Flags().StringVar(&sourceRegion, "source-region", config.DefaultSourceRegion, "Source region (where this tool runs)")
	rootCmd.Flags().StringVar(&targetRegion, "target-region", config.DefaultTargetRegion, "Target region (where the Bedrock API is called)")
	rootCmd.Flags().StringVar(&modelID, "model-id", config.DefaultModelID, "Bedrock model or inference-profile ID")
	rootCmd.Flags().StringVar(&directModelID, "direct-model-id", config.DefaultDirectModelID, "Model ID for direct Anthropic API calls")
	rootCmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "Number of API calls to make per path")
	rootCmd.Flags().StringVar(&apiKey, "anthropic-api-key", "", "Anthropic API key for direct API calls (optional if set in the environment or a .env file)")
	rootCmd.Flags().StringVar(&prompt, "prompt", config.DefaultPrompt, "Prompt sent on every request")
	rootCmd.Flags().IntVar(&maxTokens, "max-tokens", config.DefaultMaxTokens, "Maximum number of tokens to generate per request")
	rootCmd.Flags().IntVar(&interval, "interval", config.DefaultInterval, "Seconds to pause between requests")
	rootCmd.Flags().BoolVar(&compare, "compare", false, "Compare Bedrock and direct API performance")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "Instead of human-readable output, return JSON to stdout")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug log")
	rootCmd.Flags().StringVar(&id, "uuid", "", "User provided UUID")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

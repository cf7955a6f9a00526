package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/reelworthy/api/internal/client"
	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/jobs"
	"github.com/reelworthy/api/internal/logging"
	"github.com/reelworthy/api/internal/media"
	"github.com/reelworthy/api/internal/worker"
)

// reelctl runs the highlight pipeline once over a local video, without
// the HTTP server or job tracking.
func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "reelctl <input>",
		Short:        "Cut highlight clips from a local video",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().String("out", "out", "Output directory")
	root.Flags().Int("clips", 0, "Number of clips (0 uses the configured default)")
	root.Flags().String("strategy", "", "Scan strategy: dense or peaks")
	root.Flags().String("scorer", "", "Scorer variant: audio_event or transcript_humor")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, input string) error {
	outDir, _ := cmd.Flags().GetString("out")
	clipsN, _ := cmd.Flags().GetInt("clips")
	strategy, _ := cmd.Flags().GetString("strategy")
	scorer, _ := cmd.Flags().GetString("scorer")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Init(cfg.Server.LogLevel, "development")
	log := logging.WithComponent("reelctl")

	if clipsN > 0 {
		cfg.Detect.MaxClips = clipsN
	}
	if strategy != "" {
		cfg.Detect.Strategy = strategy
	}
	if scorer != "" {
		cfg.Detect.Scorer = scorer
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	caps := worker.Capabilities{
		Media: media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath),
	}
	if whisper := media.NewWhisper(cfg.Whisper.Bin, cfg.Whisper.Model); whisper.Configured() {
		caps.Transcriber = whisper
	}
	if audio := client.NewAudioEventClient(&cfg.Inference); audio.IsConfigured() {
		caps.AudioEvents = audio
	}
	if sentiment := client.NewSentimentClient(&cfg.Inference); sentiment.IsConfigured() {
		caps.Sentiment = sentiment
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	sink := jobs.SinkFunc(func(pct int) {
		fmt.Fprintf(os.Stderr, "\rprogress: %3d%%", pct)
	})

	results, err := worker.Detect(ctx, caps, cfg.Detect, absIn, outDir, "local", outDir, sink, log)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no highlights found")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%d. %s  [%.1fs - %.1fs]  score=%.3f\n   %s\n",
			r.Rank, filepath.Join(outDir, r.Filename), r.Start, r.End, r.Scores.Combined, r.Explanation)
	}
	return nil
}

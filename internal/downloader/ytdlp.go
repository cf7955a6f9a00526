package downloader

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/reelworthy/api/internal/logging"
)

// ProgressFunc receives download progress in percent.
type ProgressFunc func(pct float64)

// progressRe matches yt-dlp's per-line download progress, e.g.
// "[download]  42.3% of 10.00MiB at 1.00MiB/s".
var progressRe = regexp.MustCompile(`\[download\]\s+([0-9.]+)%`)

// YTDLP resolves a remote URL to a local media file via the yt-dlp
// binary, reporting byte-level progress through a callback.
type YTDLP struct {
	bin string
	log zerolog.Logger
}

func NewYTDLP(bin string) *YTDLP {
	return &YTDLP{bin: bin, log: logging.WithComponent("downloader")}
}

// Fetch downloads url into destDir under the given id and returns the
// local file path. Progress percentages parsed from yt-dlp's output are
// forwarded to onProgress as they arrive.
func (d *YTDLP) Fetch(ctx context.Context, url, destDir, id string, onProgress ProgressFunc) (string, error) {
	outTemplate := filepath.Join(destDir, id+".%(ext)s")

	cmd := exec.CommandContext(ctx, d.bin,
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--no-playlist",
		"--newline",
		"--no-warnings",
		"-o", outTemplate,
		url,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("yt-dlp start: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	var lastLine string
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lastLine = line
		}
		if m := progressRe.FindStringSubmatch(line); m != nil && onProgress != nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
				onProgress(pct)
			}
		}
	}

	if err := cmd.Wait(); err != nil {
		d.log.Error().Err(err).Str("url", url).Str("last_line", lastLine).Msg("download failed")
		return "", fmt.Errorf("yt-dlp: %w", err)
	}
	if onProgress != nil {
		onProgress(100)
	}

	// yt-dlp picks the extension; find what it wrote.
	matches, err := filepath.Glob(filepath.Join(destDir, id+".*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("downloaded file for job %s not found", id)
	}
	return matches[0], nil
}

package speech

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// битрейт для оценки, если ffprobe недоступен
const fallbackBitrate = 128_000

// AudioDuration asks ffprobe for the length of the file at path.
func AudioDuration(ctx context.Context, path string) (time.Duration, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// EstimateDuration guesses the length of an mp3 payload from its size.
func EstimateDuration(size int) time.Duration {
	if size <= 0 {
		return 0
	}
	return time.Duration(float64(size*8) / fallbackBitrate * float64(time.Second))
}

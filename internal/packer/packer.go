package packer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"skein/internal/builder"
	"skein/internal/discover"
	"skein/internal/logging"
	"skein/internal/textdata"
)

// Options controls a packing run.
type Options struct {
	// Workers is the pool size.
	Workers int
	// ShowProgress renders a progress tracker on stderr when it is a TTY.
	ShowProgress bool
}

// Packer owns the output file for the duration of a run.
type Packer struct {
	builder *builder.Builder
	logger  *slog.Logger
	opts    Options
}

// New creates a packer. A nil logger disables logging.
func New(b *builder.Builder, logger *slog.Logger, opts Options) *Packer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Packer{
		builder: b,
		logger:  logging.NewComponentLogger(logger, "packer"),
		opts:    opts,
	}
}

// Run packs every group into outputPath. Frames are written first finished,
// first written; a run interrupted mid-frame leaves a file that is valid up
// to the last whole frame.
func (p *Packer) Run(ctx context.Context, groups []discover.Group, outputPath string) error {
	started := time.Now()

	lock := flock.New(outputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("output %s is being written by another run", outputPath)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	tracker := p.newTracker(len(groups))

	frames, err := p.pack(ctx, groups, textdata.NewWriter(out), tracker)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	p.logger.Info("corpus packed",
		logging.Int("groups", len(groups)),
		logging.Int("frames", frames),
		logging.String("output", outputPath),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}

// pack runs the pool and writes results as they complete. The driver blocks
// on the results channel between writes, so at most Workers groups are in
// flight at once.
func (p *Packer) pack(ctx context.Context, groups []discover.Group, writer *textdata.Writer, tracker *progress.Tracker) (int, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan discover.Group)
	results := make(chan []byte)

	go func() {
		defer close(tasks)
		for _, group := range groups {
			select {
			case tasks <- group:
			case <-runCtx.Done():
				return
			}
		}
	}()

	workers, workerCtx := errgroup.WithContext(runCtx)
	for i := 0; i < p.opts.Workers; i++ {
		workers.Go(func() error {
			for group := range tasks {
				payload := p.builder.Build(workerCtx, group).Marshal()
				select {
				case results <- payload:
				case <-workerCtx.Done():
					return nil
				}
			}
			return nil
		})
	}
	go func() {
		_ = workers.Wait()
		close(results)
	}()

	var frames int
	var writeErr error
	for payload := range results {
		if writeErr != nil {
			// Keep draining so the workers can exit.
			continue
		}
		if err := writer.AppendPayload(payload); err != nil {
			writeErr = err
			cancel()
			continue
		}
		frames++
		if tracker != nil {
			tracker.Increment(1)
		}
	}
	if tracker != nil {
		tracker.MarkAsDone()
	}
	if writeErr != nil {
		return frames, writeErr
	}
	return frames, ctx.Err()
}

func (p *Packer) newTracker(total int) *progress.Tracker {
	if !p.opts.ShowProgress || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(os.Stderr)
	pw.SetAutoStop(true)
	pw.SetUpdateFrequency(250 * time.Millisecond)

	tracker := &progress.Tracker{
		Message: "packing groups",
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	pw.AppendTracker(tracker)
	go pw.Render()
	return tracker
}

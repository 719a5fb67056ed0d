package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"skein/internal/builder"
	"skein/internal/config"
	"skein/internal/discover"
	"skein/internal/logging"
	"skein/internal/packer"
	"skein/internal/phoneme"
)

func newPackCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var filelistFlag string
	var workersFlag int
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack configured datasets (or a filelist) into one corpus file",
		Long: `Pack discovers groups of feature files, builds one record per group with a
fixed-size worker pool, and appends each record as a length-prefixed frame to
the output corpus. Records land in completion order; per-member failures are
logged and skipped without affecting the exit status.

With --filelist, grouping comes from the manifest's speaker column instead of
the configured dataset trees.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			groups, err := discoverGroups(cfg, filelistFlag, logger)
			if err != nil {
				return err
			}

			output := cfg.Output.Path
			if outputFlag != "" {
				if output, err = config.ExpandPath(outputFlag); err != nil {
					return err
				}
			}
			workers := cfg.Output.Workers
			if workersFlag > 0 {
				workers = workersFlag
			}

			// Pin numeric runtime thread pools before any worker spawns a
			// converter subprocess.
			phoneme.PinNumericThreads()

			phonemizer := phoneme.NewService(phoneme.Config{
				Command:        cfg.Phonemizer.Command,
				Args:           cfg.Phonemizer.Args,
				TimeoutSeconds: cfg.Phonemizer.TimeoutSeconds,
			})

			logger.Info("starting pack run",
				logging.Int("groups", len(groups)),
				logging.Int("workers", workers),
				logging.String("output", output),
			)

			p := packer.New(builder.New(phonemizer, logger), logger, packer.Options{
				Workers:      workers,
				ShowProgress: !noProgress,
			})
			return p.Run(cmd.Context(), groups, output)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Corpus file path (defaults to output.path)")
	cmd.Flags().StringVar(&filelistFlag, "filelist", "", "Manifest of path|speaker|languages|text lines; replaces configured datasets")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Worker pool size (defaults to output.workers)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress tracker")

	return cmd
}

// discoverGroups selects the discovery mode: a manifest replaces the
// configured dataset trees entirely, so the two sources never mix in one run.
func discoverGroups(cfg *config.Config, filelist string, logger *slog.Logger) ([]discover.Group, error) {
	if filelist != "" {
		path, err := config.ExpandPath(filelist)
		if err != nil {
			return nil, err
		}
		groups, err := discover.FromManifest(path)
		if err != nil {
			return nil, err
		}
		if len(cfg.Datasets) > 0 {
			logger.Info("manifest mode selected, configured datasets ignored",
				logging.Int("datasets", len(cfg.Datasets)),
			)
		}
		logger.Info("discovered groups",
			logging.String("manifest", path),
			logging.Int("groups", len(groups)),
		)
		return groups, nil
	}

	if len(cfg.Datasets) == 0 {
		return nil, errors.New("nothing to pack: configure [[datasets]] or pass --filelist")
	}

	var groups []discover.Group
	for i := range cfg.Datasets {
		ds := cfg.Datasets[i]
		dsGroups, err := discover.FromTree(ds)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", ds.Source, err)
		}
		logger.Info("discovered groups",
			logging.String(logging.FieldDataset, ds.Source),
			logging.String("root", ds.Root),
			logging.Int("groups", len(dsGroups)),
		)
		groups = append(groups, dsGroups...)
	}
	return groups, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"batterylog/internal/config"
	"batterylog/internal/fileutil"
	"batterylog/internal/history"
	"batterylog/internal/logging"
	"batterylog/internal/pipeline"
	"batterylog/internal/preflight"
)

// liveDisabled is the --live value that keeps live mode off.
const liveDisabled = "false"

type extractOptions struct {
	input  string
	live   string
	record bool
}

// mode picks the store to read. --input wins over --live.
func (o *extractOptions) mode() (history.Mode, bool) {
	if o.input != "" {
		return history.ModeArchive, true
	}
	if o.live != liveDisabled {
		return history.ModeLive, true
	}
	return "", false
}

func (o *extractOptions) source(cfg *config.Config) (pipeline.Source, error) {
	mode, ok := o.mode()
	if !ok {
		return nil, errors.New("specify --input <archive> or --live")
	}
	var checks []preflight.Result
	var src pipeline.Source
	switch mode {
	case history.ModeArchive:
		root, err := config.ExpandPath(o.input)
		if err != nil {
			return nil, fmt.Errorf("resolve input path: %w", err)
		}
		checks = preflight.RunArchive(root)
		src = pipeline.ArchiveSource{Root: root}
	default:
		checks = preflight.RunLive(cfg)
		src = pipeline.NewLiveSource(cfg.Paths)
	}
	if err := preflight.Err(checks); err != nil {
		return nil, err
	}
	return src, nil
}

func runExtract(cmd *cobra.Command, ctx *commandContext, opts *extractOptions) error {
	mode, ok := opts.mode()
	if !ok {
		return nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	src, err := opts.source(cfg)
	if err != nil {
		return err
	}

	runner := pipeline.New(src,
		pipeline.WithStrict(cfg.Extraction.Strict),
		pipeline.WithLogger(logger),
	)
	result, runErr := runner.Run(cmd.Context())
	if mode == history.ModeLive {
		fmt.Fprintln(cmd.ErrOrStderr(), "Finished parsing")
	}
	if runErr != nil {
		return runErr
	}

	if opts.record {
		if err := recordResult(cmd.Context(), cfg, logger, mode, result); err != nil {
			return err
		}
	}
	if result.Found {
		fmt.Fprintln(cmd.OutOrStdout(), result.Value)
	}
	return nil
}

func recordResult(ctx context.Context, cfg *config.Config, logger *slog.Logger, mode history.Mode, result pipeline.Result) error {
	if !cfg.History.Enabled {
		logging.WarnWithContext(logger, "history disabled; run not recorded", "history_disabled",
			logging.String(logging.FieldErrorHint, "set history.enabled = true"),
			logging.String(logging.FieldImpact, "run not recorded"),
		)
		return nil
	}
	run := history.Run{
		RunID:        result.RunID,
		Source:       result.Source,
		Mode:         mode,
		Found:        result.Found,
		Value:        result.Value,
		TracePath:    result.Path,
		AnchorOffset: result.Anchor.Offset,
		FilesVisited: result.FilesVisited,
		FilesSkipped: result.FilesSkipped,
		Deferred:     result.Deferred,
		FinalState:   result.State.String(),
		Elapsed:      result.Elapsed,
	}
	if result.Found {
		run.Category = result.Category.String()
		digest, err := fileutil.HashFile(result.Path)
		if err != nil {
			logging.WarnWithContext(logger, "evidence digest failed", "digest_failed",
				logging.Error(err),
				logging.Path(result.Path),
				logging.String(logging.FieldImpact, "run recorded without a digest"),
			)
		}
		run.TraceDigest = digest
	}

	store, err := history.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	if _, err := store.Record(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	logger.Debug("run recorded", logging.String("history", store.Path()), logging.String(logging.FieldRunID, run.RunID))
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/paulhhowells/tmplpack/internal/config"
	pkgerrors "github.com/paulhhowells/tmplpack/internal/errors"
	"github.com/paulhhowells/tmplpack/internal/livereload"
	"github.com/paulhhowells/tmplpack/internal/logging"
	"github.com/paulhhowells/tmplpack/internal/pipeline"
	"github.com/paulhhowells/tmplpack/internal/scanner"
	"github.com/paulhhowells/tmplpack/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild the bundle whenever a template changes",
	Long: `Build once, then watch the app root and rebuild whenever a template
matching the include globs is created, changed or removed. A failed rebuild is
reported and watching continues.

With --livereload, a websocket endpoint at /livereload pushes a JSON message
after every rebuild: {"type":"reload",...} on success, {"type":"error",...}
on failure.

Examples:
  tmplpack watch                              # Rebuild on change
  tmplpack watch --debounce 1s                # Coalesce bursts of saves
  tmplpack watch --livereload 127.0.0.1:35729 # Notify connected browsers`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	AddStandardFlags(watchCmd, "bundle")
	watchCmd.Flags().Duration("debounce", 0, "Delay before a burst of changes triggers a rebuild (default 300ms)")
	watchCmd.Flags().String("livereload", "", "Address for the live-reload websocket, empty disables it")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}
	p.AddCallback(reportRebuild(out))

	if cfg.Watch.LiveReload != "" {
		startLiveReload(ctx, cfg.Watch.LiveReload, p, logger)
	}

	fmt.Fprintln(out, "🔨 Initial build...")
	// A broken initial build still starts the watcher so the fix triggers a rebuild.
	_, _ = p.Run(ctx)

	fw, err := newTemplateWatcher(cfg, logger, func(events []watcher.ChangeEvent) error {
		fmt.Fprintf(out, "📁 %d template(s) changed\n", len(events))
		_, err := p.Run(ctx)
		if pkgerrors.IsSourceNotFound(err) {
			return err
		}
		return nil
	})
	if err != nil {
		return pkgerrors.WithSuggestions(err)
	}
	defer fw.Stop()

	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintf(out, "👀 Watching %s for changes... (Press Ctrl+C to stop)\n", cfg.Project.App)
	<-ctx.Done()
	fmt.Fprintln(out, "🛑 Stopping file watcher...")

	return nil
}

// newTemplateWatcher watches the app root and hands the handler only events
// for files the scanner would pick up.
func newTemplateWatcher(cfg *config.Config, logger logging.Logger, handler watcher.ChangeHandler) (*watcher.FileWatcher, error) {
	sc, err := scanner.New(scanner.OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, pkgerrors.NewConfigError("template globs", err)
	}

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger.WithComponent("watcher"))
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddFilter(watcher.HTMLFilter)
	fw.AddFilter(watcher.RelativeFilter(filepath.Clean(cfg.Project.App), sc.Match))
	fw.AddHandler(handler)

	if err := fw.AddRecursive(cfg.Project.App); err != nil {
		fw.Stop()
		return nil, &pkgerrors.SourceNotFoundError{Root: cfg.Project.App, Cause: err}
	}

	return fw, nil
}

func reportRebuild(out io.Writer) pipeline.Callback {
	return func(res *pipeline.Result, err error) {
		if err != nil {
			fmt.Fprintf(out, "❌ Build failed: %v\n", err)
			return
		}
		fmt.Fprintf(out, "✅ Bundled %d %s into %s in %s\n",
			len(res.Templates), plural(len(res.Templates), "template", "templates"),
			res.ArtifactPath, res.Duration.Round(time.Millisecond))
	}
}

// startLiveReload serves the hub until ctx is done and broadcasts the
// outcome of every build.
func startLiveReload(ctx context.Context, addr string, p *pipeline.Pipeline, logger logging.Logger) {
	hub := livereload.NewHub(logger)

	go func() {
		if err := livereload.ListenAndServe(ctx, addr, hub); err != nil {
			logger.Error(ctx, err, "Live reload server stopped", "addr", addr)
		}
	}()

	p.AddCallback(func(res *pipeline.Result, err error) {
		if bErr := hub.Broadcast(buildMessage(res, err)); bErr != nil {
			logger.Warn(ctx, bErr, "Live reload notification dropped")
		}
	})
}

func buildMessage(res *pipeline.Result, err error) livereload.Message {
	if err != nil {
		return livereload.Message{Type: "error", Error: err.Error()}
	}
	return livereload.Message{
		Type:      "reload",
		Artifact:  res.ArtifactPath,
		Templates: len(res.Templates),
	}
}

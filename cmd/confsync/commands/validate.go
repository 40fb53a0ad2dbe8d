package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/openfroyo/confsync/pkg/config"
)

// watchDebounce coalesces the burst of events an editor produces on save.
const watchDebounce = 250 * time.Millisecond

func newValidateCommand(opts *globalOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a document against the live configuration",
		Long: `Validate a desired-state document against the live configuration.

This command reports:
  - Entities missing mandatory properties
  - References to entities that are neither in the document nor live
  - Changes to properties that cannot change once created`,
		Example: `  # Validate a document
  confsync validate network.yaml

  # Validate again on every save
  confsync validate --watch network.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return opts.withSession(cmd, path, func(ctx context.Context, s *session) error {
				if watch {
					return s.watchDocument(ctx, path)
				}
				return s.validateDocument(ctx, path)
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "validate again whenever the document changes")

	return cmd
}

// validateDocument validates the document at path and prints the outcome.
func (s *session) validateDocument(ctx context.Context, path string) error {
	doc, err := config.LoadDocument(path)
	if err != nil {
		return s.Report(err)
	}

	store, err := s.Store(ctx)
	if err != nil {
		return err
	}

	if err := s.Planner(store).Validate(ctx, doc); err != nil {
		return s.Report(err)
	}

	s.Renderer(false).Line(fmt.Sprintf("%s is valid: %d entities checked.", path, doc.Len()))
	return nil
}

// watchDocument validates path now and after every change until ctx is
// cancelled. Failed validations are printed and do not stop the watch.
func (s *session) watchDocument(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so the directory is watched.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	_ = s.validateDocument(ctx, path)
	s.logger.Info().Str("path", path).Msg("Watching document for changes.")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("Watcher error.")

		case <-pending:
			pending = nil
			s.logger.Debug().Str("path", path).Msg("Document changed.")
			_ = s.validateDocument(ctx, path)
		}
	}
}

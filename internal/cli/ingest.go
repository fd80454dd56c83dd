package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"edurag/internal/domain"
	"edurag/internal/usecase"
)

var (
	ingestInstitution string
	ingestWatch       bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Upload a directory of text files for an institution",
	Long: `Upload every file under path that matches the configured include globs as a
document of the institution. Files already ingested and unchanged are skipped;
documents whose file was removed are deleted.

Examples:
  edurag ingest ./handbook -i unilag
  edurag ingest ./handbook -i unilag --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestInstitution, "institution", "i", "", "institution id (required)")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep ingesting files as they change")
	ingestCmd.MarkFlagRequired("institution")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, GetConfig(), GetRootDir(), false, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Scanning %s...\n", path)

	var (
		bar       *progressbar.ProgressBar
		barMu     sync.Mutex
		startTime time.Time
	)
	progressCallback := func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = newProgressBar(total, "Ingesting")
		}
		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Ingesting[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	start := time.Now()
	result, err := app.Import.Import(ctx, path, ingestInstitution, progressCallback)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	stats := app.Index.Stats(ingestInstitution)
	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files ingested: %d\n", result.FilesImported)
	fmt.Printf("  Files skipped:  %d (unchanged)\n", result.FilesSkipped)
	fmt.Printf("  Files deleted:  %d (removed)\n", result.FilesDeleted)
	fmt.Printf("  Files failed:   %d\n", result.FilesFailed)
	fmt.Printf("  Passages:       %d\n", stats.Passages)
	fmt.Printf("  Duration:       %s\n", formatDuration(time.Since(start)))

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	if !ingestWatch {
		return nil
	}
	fmt.Printf("\nWatching %s for changes (Ctrl+C to stop)...\n", path)
	return watch(ctx, app.Import, app.Docs, path, ingestInstitution)
}

// watch ingests created or modified files and deletes the documents of
// removed ones until ctx is done.
func watch(ctx context.Context, imp *usecase.ImportUseCase, docs *usecase.DocumentService, root, institutionID string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	addDirs := func(dir string) error {
		return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if base := d.Name(); p != dir && strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return watcher.Add(p)
		})
	}
	if err := addDirs(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleEvent(ctx, imp, docs, addDirs, root, institutionID, event)
		}
	}
}

func handleEvent(ctx context.Context, imp *usecase.ImportUseCase, docs *usecase.DocumentService, addDirs func(string) error, root, institutionID string, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := addDirs(event.Name); err != nil {
				logger.Warn("failed to watch directory", "path", event.Name, "error", err)
			}
			return
		}
		if !imp.Matches(root, event.Name) {
			return
		}
		doc, err := imp.ImportFile(ctx, event.Name, institutionID)
		if err != nil {
			logger.Warn("failed to ingest file", "path", event.Name, "error", err)
			return
		}
		fmt.Printf("  ingested %s (%s)\n", event.Name, doc.State)

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		id := usecase.FileDocumentID(institutionID, usecase.FileURL(event.Name))
		err := docs.Delete(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return
		}
		if err != nil {
			logger.Warn("failed to delete document", "path", event.Name, "error", err)
			return
		}
		fmt.Printf("  removed %s\n", event.Name)
	}
}

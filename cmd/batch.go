package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-extractor/internal/document"
	"github.com/spigell/cv-extractor/internal/extraction"
	"github.com/spigell/cv-extractor/internal/logger"
	"github.com/spigell/cv-extractor/internal/report"
)

var batchExtensions = map[string]bool{".pdf": true, ".txt": true, ".md": true}

var batchCmd = &cobra.Command{
	Use:   "batch DIR",
	Short: "Extract records from every CV document in a directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		batch(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("xlsx", "", "write an Excel review workbook to this file")
	batchCmd.Flags().String("applied-job", "", "job label passed through to every record")
	batchCmd.Flags().Int64("requester-id", 0, "requester identifier passed through to every record")
}

func batch(cmd *cobra.Command, dir string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	files, err := listDocuments(dir)
	if err != nil {
		logger.Fatal("listing documents", zap.Error(err))
	}
	if len(files) == 0 {
		logger.Info("exiting", zap.String("reason", "no documents found"), zap.String("dir", dir))
		return
	}

	logger.Info("starting the batch", zap.String("version", version), zap.Int("documents", len(files)))

	appliedJob, _ := cmd.Flags().GetString("applied-job")
	requesterID, _ := cmd.Flags().GetInt64("requester-id")
	xlsx, _ := cmd.Flags().GetString("xlsx")

	pipeline := newPipeline(ctx, config, logger)
	results, skipped := runBatch(ctx, pipeline, files, extraction.Request{AppliedJob: appliedJob, RequesterID: requesterID}, logger)

	logger.Info("batch finished",
		zap.Int("processed", len(results)),
		zap.Int("skipped", skipped),
		zap.Int("needs_review", countNeedsReview(results)),
	)

	if xlsx == "" {
		if err := writeResult(results, ""); err != nil {
			logger.Fatal("writing results", zap.Error(err))
		}
		return
	}

	if err := report.Write(results, xlsx); err != nil {
		logger.Fatal("writing workbook", zap.Error(err))
	}
	logger.Info("exported workbook", zap.String("filename", xlsx))
}

// runBatch processes documents one at a time. Documents without a usable text
// layer are skipped; a cancelled context stops the batch.
func runBatch(ctx context.Context, pipeline *extraction.Pipeline, files []string, base extraction.Request, logger *zap.Logger) ([]*extraction.Result, int) {
	results := make([]*extraction.Result, 0, len(files))
	skipped := 0

	for _, file := range files {
		if ctx.Err() != nil {
			logger.Warn("batch interrupted", zap.Int("remaining", len(files)-len(results)-skipped))
			break
		}

		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("skipping unreadable file", zap.String("file", file), zap.Error(err))
			skipped++
			continue
		}

		req := base
		req.Document = data
		req.Source = filepath.Base(file)

		result, err := pipeline.Process(ctx, req)
		if err != nil {
			if !errors.Is(err, document.ErrExtraction) {
				logger.Warn("processing stopped", zap.String("file", file), zap.Error(err))
				break
			}
			logger.Warn("skipping document without text", zap.String("file", file), zap.Error(err))
			skipped++
			continue
		}

		results = append(results, result)
	}

	return results, skipped
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !batchExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	return files, nil
}

func countNeedsReview(results []*extraction.Result) int {
	count := 0
	for _, res := range results {
		if res.Record.NeedsReview() {
			count++
		}
	}
	return count
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-extractor/internal/cv"
	"github.com/spigell/cv-extractor/internal/extraction"
	"github.com/spigell/cv-extractor/internal/logger"
	"github.com/spigell/cv-extractor/internal/report"
)

const (
	PromptPrint  = "Print record"
	PromptSave   = "Save record to file"
	PromptRename = "Enter name manually"
	PromptExcel  = "Export to Excel"
	PromptDone   = "Done"
)

var errDone = errors.New("done")

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Extract a structured record from a single CV document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parse(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().String("applied-job", "", "job label passed through to the record")
	parseCmd.Flags().Int64("requester-id", 0, "requester identifier passed through to the record")
	parseCmd.Flags().StringP("output", "o", "", "write the result to this file instead of stdout")
	parseCmd.Flags().BoolP("interactive", "i", false, "review the result before writing it")
}

func parse(cmd *cobra.Command, path string) {
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

	logger.Info("starting the cv-extractor", zap.String("version", version), zap.String("file", path))

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading document", zap.Error(err))
	}

	appliedJob, _ := cmd.Flags().GetString("applied-job")
	requesterID, _ := cmd.Flags().GetInt64("requester-id")
	output, _ := cmd.Flags().GetString("output")
	interactive, _ := cmd.Flags().GetBool("interactive")

	pipeline := newPipeline(ctx, config, logger)
	result, err := pipeline.Process(ctx, extraction.Request{
		Document:    data,
		AppliedJob:  appliedJob,
		RequesterID: requesterID,
		Source:      filepath.Base(path),
	})
	if err != nil {
		logger.Fatal("processing document", zap.Error(err))
	}

	logger.Info("document processed",
		zap.String("strategy", string(result.Strategy)),
		zap.Int("attempts", result.Attempts),
		zap.Bool("needs_review", result.Record.NeedsReview()),
	)

	if !interactive {
		if err := writeResult(result, output); err != nil {
			logger.Fatal("writing result", zap.Error(err))
		}
		return
	}

	for {
		items := []string{PromptPrint, PromptSave, PromptExcel, PromptDone}
		if result.Record.NeedsReview() {
			items = append([]string{PromptRename}, items...)
		}

		action := promptui.Select{
			Label: fmt.Sprintf("%s: %s (%s)", result.Source, result.Record.Name, result.Strategy),
			Items: items,
		}
		_, selected, err := action.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		next, err := handleReviewAction(selected, result, output, logger)
		if err != nil {
			if errors.Is(err, errDone) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
		result = next
	}
}

func handleReviewAction(action string, result *extraction.Result, output string, logger *zap.Logger) (*extraction.Result, error) {
	switch action {
	case PromptPrint:
		return result, writeResult(result, "")
	case PromptSave:
		path, err := askPath("Output file", output, ".json")
		if err != nil {
			return nil, err
		}
		if err := writeResult(result, path); err != nil {
			return nil, err
		}
		logger.Info("saved record", zap.String("filename", path))
		return result, nil
	case PromptExcel:
		path, err := askPath("Workbook file", "", ".xlsx")
		if err != nil {
			return nil, err
		}
		if err := report.Write([]*extraction.Result{result}, path); err != nil {
			return nil, err
		}
		logger.Info("exported workbook", zap.String("filename", path))
		return result, nil
	case PromptRename:
		namePrompt := promptui.Prompt{
			Label:    "Candidate name",
			Validate: validateName,
		}
		name, err := namePrompt.Run()
		if err != nil {
			return nil, err
		}
		logger.Info("name entered manually", zap.String("name", strings.TrimSpace(name)))
		return renamed(result, name), nil
	case PromptDone:
		return nil, errDone
	default:
		return nil, fmt.Errorf("invalid action: %s", action)
	}
}

func askPath(label, current, ext string) (string, error) {
	if current == "" {
		current = "record" + ext
	}
	p := promptui.Prompt{Label: label, Default: current, AllowEdit: true}
	path, err := p.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

func validateName(input string) error {
	if _, ok := cv.CleanString(cv.String(input)); !ok {
		return errors.New("name must not be empty")
	}
	return nil
}

// renamed returns a copy of result carrying the reviewed name.
func renamed(result *extraction.Result, name string) *extraction.Result {
	next := *result
	next.Record.Name = strings.TrimSpace(name)
	next.Warnings = append(append([]string(nil), result.Warnings...), "name entered manually")
	return &next
}

func writeResult(result any, path string) error {
	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	pretty = append(pretty, '\n')

	if path == "" {
		_, err = os.Stdout.Write(pretty)
		return err
	}

	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

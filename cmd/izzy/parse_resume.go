package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/izzy/internal/agents"
	"github.com/jonathan/izzy/internal/assistant"
	"github.com/jonathan/izzy/internal/config"
	"github.com/jonathan/izzy/internal/ingestion"
	"github.com/jonathan/izzy/internal/observability"
	"github.com/jonathan/izzy/internal/types"
	"github.com/spf13/cobra"
)

var parseResumeCmd = &cobra.Command{
	Use:   "parse-resume",
	Short: "Parse a resume file into structured JSON",
	Long:  "Reads a PDF, DOCX, Markdown or plain text resume, sends it to the resume parser assistant and prints the structured result as JSON.",
	RunE:  runParseResume,
}

var (
	parseInputFile string
	parseVerbose   bool
)

func init() {
	parseResumeCmd.Flags().StringVarP(&parseInputFile, "in", "i", "", "Path to the resume file (required)")
	parseResumeCmd.Flags().BoolVarP(&parseVerbose, "verbose", "v", false, "Print a readable summary after the JSON")

	if err := parseResumeCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(parseResumeCmd)
}

func runParseResume(cmd *cobra.Command, _ []string) error {
	text, err := readResumeFile(parseInputFile)
	if err != nil {
		return err
	}

	assistantConfig, err := config.NewAssistantConfig()
	if err != nil {
		return fmt.Errorf("failed to load assistant config: %w", err)
	}
	provider, err := assistant.NewOpenAIClient(assistant.OpenAIConfig{
		APIKey:  assistantConfig.APIKey,
		BaseURL: assistantConfig.BaseURL,
		Timeout: assistantConfig.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create assistant client: %w", err)
	}

	poller := assistant.Poller{
		Initial:    assistantConfig.PollInitial,
		Max:        assistantConfig.PollMax,
		Multiplier: 2,
		Timeout:    assistantConfig.PollTimeout,
	}
	// No store: parsing from the command line is not persisted.
	a := agents.New(agents.Deps{
		Provider:   provider,
		Poller:     poller,
		Logger:     newLogger(cmd.ErrOrStderr(), os.Getenv("LOG_LEVEL")),
		Assistants: agents.AssistantIDs{ResumeParser: assistantConfig.ResumeParserID},
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res := a.Parser.Parse(ctx, text)
	if !res.Success {
		return fmt.Errorf("failed to parse resume: %s", res.Error)
	}

	return writeParsedResume(cmd.OutOrStdout(), res, parseVerbose)
}

// readResumeFile extracts text from a supported document, treating any other
// extension as plain text.
func readResumeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume file: %w", err)
	}

	text, err := ingestion.ExtractDocumentText(path, data)
	if errors.Is(err, ingestion.ErrUnsupportedFormat) {
		text = ingestion.CleanText(string(data))
		err = nil
		if text == "" {
			err = ingestion.ErrEmptyDocument
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to extract resume text: %w", err)
	}
	return text, nil
}

func writeParsedResume(w io.Writer, res agents.Result[types.StructuredResume], verbose bool) error {
	jsonBytes, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal parsed resume: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(jsonBytes)); err != nil {
		return err
	}
	if verbose {
		observability.NewPrinter(w).PrintResume(&res.Data)
	}
	return nil
}

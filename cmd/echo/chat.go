package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanqian/echo-chat/internal/domain/conversation"
)

var errTurnFailed = errors.New("request failed")

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <text>",
		Short: "Summarize text typed on the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			s, err := newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "[user] %s\n", text)
			s.controller.SubmitUserText(cmd.Context(), text, true)
			return s.result()
		},
	}
}

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <file>",
		Short: "Summarize the contents of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			text, err := conversation.InputPrompt(string(data))
			if err != nil {
				return err
			}
			return sendExternal(cmd, text)
		},
	}
}

func newCodeCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "code <file>",
		Short: "Ask what a source file does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read code: %w", err)
			}
			if language == "" {
				language = languageForPath(args[0])
			}
			text, err := conversation.CodePrompt(language, string(data))
			if err != nil {
				return err
			}
			return sendExternal(cmd, text)
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "language id (guessed from the file extension when empty)")
	return cmd
}

func sendExternal(cmd *cobra.Command, text string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.Close()

	s.controller.AddExternalUserMessage(cmd.Context(), text)
	return s.result()
}

var extensionLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascriptreact",
	".ts":   "typescript",
	".tsx":  "typescriptreact",
	".java": "java",
	".rs":   "rust",
	".rb":   "ruby",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cs":   "csharp",
	".sh":   "shellscript",
	".sql":  "sql",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".md":   "markdown",
	".html": "html",
	".css":  "css",
}

// languageForPath maps a file extension to an editor language id.
func languageForPath(path string) string {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "plaintext"
}

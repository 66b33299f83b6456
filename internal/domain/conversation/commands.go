package conversation

import (
	"fmt"
	"strings"

	apperrors "github.com/yanqian/echo-chat/pkg/errors"
)

// CodeInvalidInput marks command input that was rejected before reaching the controller.
const CodeInvalidInput = "invalid_input"

// SelectionPrompt builds the text sent for "summarize selection".
func SelectionPrompt(selection string) (string, error) {
	if strings.TrimSpace(selection) == "" {
		return "", apperrors.Wrap(CodeInvalidInput, "no text selected, select some text to summarize", nil)
	}
	return "Summarize this: " + selection, nil
}

// InputPrompt builds the text sent for "summarize pasted input".
func InputPrompt(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", apperrors.Wrap(CodeInvalidInput, "no text provided for summarization", nil)
	}
	return "Summarize this: " + input, nil
}

// CodePrompt builds the text sent for "send code snippet".
func CodePrompt(language, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", apperrors.Wrap(CodeInvalidInput, "no code selected, select some code to send to chat", nil)
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = "plaintext"
	}
	return fmt.Sprintf("Here's some %s code:\n\n```%s\n%s\n```\n\nCan you explain what this code does?", language, language, code), nil
}

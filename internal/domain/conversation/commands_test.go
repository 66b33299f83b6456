package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/echo-chat/pkg/errors"
)

func TestSelectionPrompt(t *testing.T) {
	got, err := SelectionPrompt("some paragraph")
	require.NoError(t, err)
	require.Equal(t, "Summarize this: some paragraph", got)

	_, err = SelectionPrompt(" \n\t")
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))
}

func TestInputPrompt(t *testing.T) {
	got, err := InputPrompt("pasted")
	require.NoError(t, err)
	require.Equal(t, "Summarize this: pasted", got)

	_, err = InputPrompt("")
	require.EqualError(t, err, "no text provided for summarization")
}

func TestCodePrompt(t *testing.T) {
	tests := []struct {
		name     string
		language string
		code     string
		want     string
		wantErr  bool
	}{
		{
			name:     "go snippet",
			language: "go",
			code:     "func main() {}",
			want:     "Here's some go code:\n\n```go\nfunc main() {}\n```\n\nCan you explain what this code does?",
		},
		{
			name: "unknown language",
			code: "x = 1",
			want: "Here's some plaintext code:\n\n```plaintext\nx = 1\n```\n\nCan you explain what this code does?",
		},
		{
			name:     "blank code",
			language: "go",
			code:     "   ",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CodePrompt(tt.language, tt.code)
			if tt.wantErr {
				require.True(t, apperrors.IsCode(err, CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

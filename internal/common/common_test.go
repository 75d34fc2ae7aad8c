package common

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"careerai/internal/errors"
	"careerai/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	require.NoError(t, err)
	return logger
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	fp := NewFileProcessor(testLogger(t))

	md := filepath.Join(dir, "resume.md")
	require.NoError(t, os.WriteFile(md, []byte("# Jane Doe\n"), 0600))
	text, err := fp.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe")

	unknown := filepath.Join(dir, "resume.rtf")
	require.NoError(t, os.WriteFile(unknown, []byte("plain"), 0600))
	text, err = fp.ReadFile(unknown)
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	_, err = fp.ReadFile(filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))

	badPDF := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(badPDF, []byte("not a pdf"), 0600))
	_, err = fp.ReadFile(badPDF)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestValidateAndReadFiles(t *testing.T) {
	dir := t.TempDir()
	fp := NewFileProcessor(testLogger(t))
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("first"), 0600))
	require.NoError(t, os.WriteFile(b, []byte("second"), 0600))

	contents, err := fp.ValidateAndReadFiles(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, contents)

	_, err = fp.ValidateAndReadFiles(a, dir)
	assert.True(t, errors.HasCode(err, "INVALID_INPUT_FILE"))

	empty, err := fp.ReadOptionalFile("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHandleOutputToStdout(t *testing.T) {
	oh := NewOutputHandler(testLogger(t))
	var buf bytes.Buffer
	oh.stdout = &buf

	jobs := []types.SuggestedJob{{JobTitle: "Platform Engineer", Company: "Acme", Reason: "Kubernetes"}}
	require.NoError(t, oh.HandleOutput(jobs, CommandConfig{OutputFormat: "json"}))
	assert.Contains(t, buf.String(), `"jobTitle": "Platform Engineer"`)

	err := oh.HandleOutput(jobs, CommandConfig{OutputFormat: "xml"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestRunFlowCommandWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results", "posting.txt")
	logged := false

	err := RunFlowCommand(context.Background(), testLogger(t),
		CommandConfig{OutputFile: out, OutputFormat: "text"},
		types.SearchJobsInput{Query: "go"},
		func(_ context.Context, in types.SearchJobsInput) (string, error) {
			return "Posting for " + in.Query, nil
		},
		func(types.SearchJobsInput, CommandConfig) { logged = true },
	)
	require.NoError(t, err)
	assert.True(t, logged)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Posting for go")
}

func TestRunFlowCommandPropagatesFlowError(t *testing.T) {
	flowErr := errors.NewEmptyResultError("searchJobs")

	err := RunFlowCommand(context.Background(), testLogger(t),
		CommandConfig{OutputFormat: "json"},
		types.SearchJobsInput{Query: "go"},
		func(context.Context, types.SearchJobsInput) ([]types.JobListing, error) {
			return nil, flowErr
		},
		nil,
	)
	assert.True(t, stderrors.Is(err, flowErr))
}

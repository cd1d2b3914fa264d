package commands

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	importsvc "github.com/khamrai2017/finance-tracker/internal/domain/import/service"
	"github.com/khamrai2017/finance-tracker/pkg/config"
)

func writeStatement(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testDeps() *deps {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &deps{
		Config:  &config.Config{Import: config.ImportConfig{SuggestionLimit: 5}},
		Logger:  logger,
		Service: importsvc.New(logger),
	}
}

func captureCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRunAnalyze(t *testing.T) {
	path := writeStatement(t, "statement.csv",
		"Date,Narration,Amount,Type\n"+
			"15/03/2024,UPI/ZOMATO/1,450.00,DR\n"+
			"16/03/2024,Salary,50000.00,CR\n")

	cmd, buf := captureCommand()
	require.NoError(t, runAnalyze(cmd, testDeps(), path))

	out := buf.String()
	assert.Contains(t, out, "Rows: 2")
	assert.Contains(t, out, "title:        Narration")
	assert.Contains(t, out, "Date range: 2024-03-15 to 2024-03-16")
}

func TestRunAnalyzeMissingColumns(t *testing.T) {
	path := writeStatement(t, "odd.csv", "Foo,Bar\n1,2\n")

	cmd, buf := captureCommand()
	require.NoError(t, runAnalyze(cmd, testDeps(), path))
	assert.Contains(t, buf.String(), "Missing required columns")
}

func TestParseStatementUnsupportedFormat(t *testing.T) {
	path := writeStatement(t, "statement.pdf", "%PDF-1.4")
	_, err := parseStatement(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported statement format")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "import", "reconcile", "export"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentry/internal/application/analysis"
	"github.com/turtacn/PatentSentry/internal/config"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

func noService(*config.Config, logging.Logger) (analysis.Service, error) {
	return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "not configured")
}

// run executes the command tree with args and returns stdout.
func run(t *testing.T, factory ServiceFactory, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(factory)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "sentry", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"expiry", "fees", "analyze", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "log-level", "output", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
	assert.Equal(t, OutputText, cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestRoot_InvalidOutputFormat(t *testing.T) {
	_, err := run(t, noService, "version", "-o", "yaml")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	_, err := run(t, noService, "version", "--log-level", "loud")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestRoot_MissingConfigFile(t *testing.T) {
	_, err := run(t, noService, "version", "--config", "/nonexistent/sentry.yaml")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, noService, "version", "-o", "json")
	require.NoError(t, err)

	var v versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v.Version)
}

func TestGetCLIContext_Missing(t *testing.T) {
	_, err := GetCLIContext(&cobra.Command{})
	assert.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"A", "LONGER"}, [][]string{{"wide value", "x"}, {"y"}}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "-  "))
	assert.Equal(t, 12, strings.Index(lines[0], "LONGER"))
	assert.Equal(t, 12, strings.Index(lines[2], "x"))
	assert.Equal(t, "y", strings.TrimSpace(lines[3]))

	buf.Reset()
	require.NoError(t, writeTable(&buf, nil, nil))
	assert.Empty(t, buf.String())
}

func TestVersionCmd_Table(t *testing.T) {
	out, err := run(t, noService, "version", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "VERSION")
	assert.Contains(t, out, Version)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer

	PrintError(&buf, errors.New(errors.ErrCodeMissingFilingDate, "filing date is required").WithDetail("pass --filing"))
	assert.Equal(t, "Error [TERM_002]: filing date is required\n  pass --filing\n", buf.String())

	buf.Reset()
	PrintError(&buf, context.Canceled)
	assert.Equal(t, "Error: context canceled\n", buf.String())

	buf.Reset()
	PrintError(&buf, nil)
	assert.Empty(t, buf.String())
}

package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStderr(t *testing.T, fn func()) []byte {
	t.Helper()

	reader, writer, err := os.Pipe()
	require.NoError(t, err)

	original := os.Stderr
	os.Stderr = writer
	defer func() { os.Stderr = original }()

	fn()

	require.NoError(t, writer.Close())
	output, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	return bytes.TrimSpace(output)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name           string
		level          string
		format         string
		expectError    bool
		expectJSON     bool
		expectedOutput bool
	}{
		{name: "structured info", level: "info", format: FormatStructured, expectJSON: true, expectedOutput: true},
		{name: "console debug", level: "DEBUG", format: FormatConsole, expectedOutput: true},
		{name: "error level hides info", level: "error", format: FormatConsole},
		{name: "unsupported level", level: "trace", format: FormatConsole, expectError: true},
		{name: "unsupported format", level: "info", format: "xml", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buildErr error
			output := captureStderr(t, func() {
				logger, err := NewLogger(tt.level, tt.format)
				buildErr = err
				if err != nil {
					assert.Nil(t, logger)
					return
				}
				logger.Info("logger test message")
				_ = logger.Sync()
			})

			if tt.expectError {
				require.Error(t, buildErr)
				return
			}
			require.NoError(t, buildErr)

			if !tt.expectedOutput {
				assert.Empty(t, output)
				return
			}
			assert.Contains(t, string(output), "logger test message")
			assert.Equal(t, tt.expectJSON, json.Valid(output))
		})
	}
}

package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_Exists(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.NotNil(t, cmd)
	assert.Equal(t, "serve", cmd.Name())
}

func TestServeCommand_Integration(t *testing.T) {
	isolate(t)

	pr, pw := io.Pipe()
	out := &bytes.Buffer{}

	// Create a fresh command instance for testing
	testCmd := &cobra.Command{
		Use:  "serve",
		RunE: runServe,
	}
	testCmd.SetIn(pr)
	testCmd.SetOut(out)
	testCmd.SetErr(out)

	done := make(chan error, 1)
	go func() {
		done <- testCmd.Execute()
	}()

	request := `{"type":"classify","payload":{"content":"INVOICE\nBill To: Acme\nTotal: 1.00","source":"inline"}}` + "\n" +
		`{"type":"close","payload":{}}` + "\n"
	_, err := pw.Write([]byte(request))
	require.NoError(t, err)
	pw.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("command did not exit in time")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"type":"ready"`)
	assert.Contains(t, lines[1], `"type":"classify"`)
	assert.Contains(t, lines[1], `"rule_id":"ds.finance.invoice"`)
}

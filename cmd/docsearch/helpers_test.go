package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/docsearch/pkg/config"
	"github.com/stretchr/testify/require"
)

const invoiceDoc = "INVOICE\nInvoice Number: 1042\nBill To: Acme Corp\nWidget x 3    30.00\nTotal: 30.00\n"

// isolate runs the test in an empty directory with no config file, no
// DOCSEARCH_* overrides and every command flag at its zero value.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{config.EnvConfig, config.EnvEngine, config.EnvWorkers, config.EnvMatchTimeout, config.EnvOutput} {
		t.Setenv(k, "")
	}

	verbose, quiet, configPath = false, false, ""
	scanRules, evalRules, rulesSelect, serveRules = ruleFlags{}, ruleFlags{}, ruleFlags{}, ruleFlags{}
	scanOutputFormat = "human"
	scanIncremental = false
	evalRuleID, evalExplain, evalFormat = "", false, "human"
	outputFormat = "table"
	reportFormat, reportColor = "human", "never"
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

//go:build integration

package integration

import (
	"bufio"
	"encoding/json"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoice = "INVOICE\nInvoice Number: 1042\nBill To: Acme Corp\nWidget x 3    30.00\nTotal: 30.00\n"

// getProjectRoot returns the path to the docsearch project root
func getProjectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	// tests/integration/serve_test.go -> project root
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

type server struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
}

// startServer builds docsearch, starts "docsearch serve" and waits for the
// ready signal.
func startServer(t *testing.T) *server {
	t.Helper()
	projectRoot := getProjectRoot()
	binary := filepath.Join(t.TempDir(), "docsearch")

	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/docsearch")
	buildCmd.Dir = projectRoot
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(output))

	cmd := exec.Command(binary, "serve")
	cmd.Dir = t.TempDir()

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	t.Cleanup(func() {
		stdin.Close()
		cmd.Process.Kill()
	})

	s := &server{cmd: cmd, stdin: stdin, scanner: bufio.NewScanner(stdout)}
	s.scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	ready := s.read(t, 60*time.Second)
	assert.True(t, ready["success"].(bool))
	assert.Equal(t, "ready", ready["type"])
	return s
}

func (s *server) send(t *testing.T, request string) {
	t.Helper()
	_, err := s.stdin.Write([]byte(request + "\n"))
	require.NoError(t, err)
}

func (s *server) read(t *testing.T, timeout time.Duration) map[string]interface{} {
	t.Helper()
	require.True(t, waitForLine(s.scanner, timeout), "should receive a response")

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(s.scanner.Bytes(), &response))
	return response
}

func waitForLine(scanner *bufio.Scanner, timeout time.Duration) bool {
	done := make(chan bool, 1)
	go func() {
		done <- scanner.Scan()
	}()

	select {
	case result := <-done:
		return result
	case <-time.After(timeout):
		return false
	}
}

func classifyRequest(t *testing.T, content, source string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"content": content, "source": source})
	require.NoError(t, err)
	return `{"type":"classify","payload":` + string(payload) + `}`
}

func TestServeIntegration_ReadySignal(t *testing.T) {
	startServer(t)
}

func TestServeIntegration_ClassifyInvoice(t *testing.T) {
	s := startServer(t)

	s.send(t, classifyRequest(t, invoice, "invoice.txt"))
	response := s.read(t, 30*time.Second)

	assert.True(t, response["success"].(bool), "classify should succeed")
	assert.Equal(t, "classify", response["type"])

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "invoice.txt", data["source"])
	assert.Equal(t, float64(5), data["line_count"])

	scores := data["scores"].([]interface{})
	require.NotEmpty(t, scores, "invoice should be classified")

	var ruleIDs []string
	for _, sc := range scores {
		ruleIDs = append(ruleIDs, sc.(map[string]interface{})["rule_id"].(string))
	}
	assert.Contains(t, ruleIDs, "ds.finance.invoice")
}

func TestServeIntegration_ClassifyBatch(t *testing.T) {
	s := startServer(t)

	s.send(t, `{"type":"classify_batch","payload":{"items":[{"source":"a.txt","content":"nothing here"},{"source":"b.txt","content":"INVOICE\nBill To: Acme\nTotal: 1.00\n"}]}}`)
	response := s.read(t, 30*time.Second)

	assert.True(t, response["success"].(bool), "batch classify should succeed")
	assert.Equal(t, "classify_batch", response["type"])

	data := response["data"].(map[string]interface{})
	results := data["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Empty(t, results[0].(map[string]interface{})["scores"])
	assert.NotEmpty(t, results[1].(map[string]interface{})["scores"])
}

func TestServeIntegration_MultipleRequests(t *testing.T) {
	s := startServer(t)

	for i := 0; i < 5; i++ {
		s.send(t, classifyRequest(t, invoice, "invoice.txt"))
		response := s.read(t, 30*time.Second)
		assert.True(t, response["success"].(bool), "request %d should succeed", i)
	}
}

func TestServeIntegration_InvalidRequest(t *testing.T) {
	s := startServer(t)

	s.send(t, `{"type":"classify","payload":"not an object"}`)
	response := s.read(t, 30*time.Second)
	assert.False(t, response["success"].(bool))
	assert.NotEmpty(t, response["error"])
}

func TestServeIntegration_CloseCommand(t *testing.T) {
	s := startServer(t)

	s.send(t, `{"type":"close","payload":{}}`)

	done := make(chan error, 1)
	go func() {
		done <- s.cmd.Wait()
	}()

	select {
	case err := <-done:
		assert.NoError(t, err, "process should exit cleanly")
	case <-time.After(10 * time.Second):
		t.Fatal("process did not exit in time after close command")
	}
}

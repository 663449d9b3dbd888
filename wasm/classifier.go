//go:build wasm

package main

import (
	"encoding/json"
	"sync"
	"syscall/js"

	"github.com/praetorian-inc/docsearch/pkg/scanner"
)

var (
	classifiers   = make(map[int]*scanner.Core)
	classifiersMu sync.RWMutex
	nextID        int
)

func errorResult(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}

// lookup returns the classifier registered under handle.
func lookup(handle int) (*scanner.Core, bool) {
	classifiersMu.RLock()
	defer classifiersMu.RUnlock()
	core, ok := classifiers[handle]
	return core, ok
}

// newClassifier creates a classifier from a rules JSON array, or from the
// builtin rules when given "builtin" or "".
// JS: DocsearchNewClassifier(rulesJSON) -> {handle} or {error}
func newClassifier(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("rulesJSON argument required")
	}

	core, err := scanner.NewCore(args[0].String(), scanner.NoopLogger{})
	if err != nil {
		return errorResult("failed to create classifier: " + err.Error())
	}

	classifiersMu.Lock()
	id := nextID
	nextID++
	classifiers[id] = core
	classifiersMu.Unlock()

	return map[string]interface{}{"handle": id}
}

// classify scores a single document.
// JS: DocsearchClassify(handle, content, source) -> JSON result or {error}
func classify(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("handle and content arguments required")
	}

	source := ""
	if len(args) > 2 {
		source = args[2].String()
	}

	core, ok := lookup(args[0].Int())
	if !ok {
		return errorResult("invalid classifier handle")
	}

	result, err := core.Classify(args[1].String(), source)
	if err != nil {
		return errorResult("classify failed: " + err.Error())
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return errorResult("failed to marshal result: " + err.Error())
	}
	return string(jsonBytes)
}

// classifyBatch scores a JSON array of content items.
// JS: DocsearchClassifyBatch(handle, itemsJSON) -> JSON results or {error}
func classifyBatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("handle and itemsJSON arguments required")
	}

	core, ok := lookup(args[0].Int())
	if !ok {
		return errorResult("invalid classifier handle")
	}

	var items []scanner.ContentItem
	if err := json.Unmarshal([]byte(args[1].String()), &items); err != nil {
		return errorResult("failed to parse items JSON: " + err.Error())
	}

	batch, err := core.ClassifyBatch(items)
	if err != nil {
		return errorResult("batch classify failed: " + err.Error())
	}

	jsonBytes, err := json.Marshal(batch)
	if err != nil {
		return errorResult("failed to marshal results: " + err.Error())
	}
	return string(jsonBytes)
}

// closeClassifier releases a classifier.
// JS: DocsearchCloseClassifier(handle)
func closeClassifier(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("handle argument required")
	}

	handle := args[0].Int()

	classifiersMu.Lock()
	core, ok := classifiers[handle]
	if ok {
		delete(classifiers, handle)
	}
	classifiersMu.Unlock()

	if !ok {
		return errorResult("invalid classifier handle")
	}

	core.Close()
	return nil
}

// getBuiltinRules returns the builtin rules as JSON.
// JS: DocsearchGetBuiltinRules() -> JSON rules array
func getBuiltinRules(this js.Value, args []js.Value) interface{} {
	rules, err := scanner.GetBuiltinRules()
	if err != nil {
		return errorResult("failed to load builtin rules: " + err.Error())
	}

	jsonBytes, err := json.Marshal(rules)
	if err != nil {
		return errorResult("failed to marshal rules: " + err.Error())
	}
	return string(jsonBytes)
}

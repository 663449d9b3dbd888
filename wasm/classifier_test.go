//go:build wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"testing"

	"github.com/praetorian-inc/docsearch/pkg/scanner"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

// createClassifier registers a classifier for rules and returns its handle.
func createClassifier(t *testing.T, rules []*types.Rule) int {
	t.Helper()
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		t.Fatalf("Failed to marshal rules: %v", err)
	}

	result := newClassifier(js.Value{}, []js.Value{js.ValueOf(string(rulesJSON))})
	resultMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected map result, got %T", result)
	}
	if errMsg, hasError := resultMap["error"]; hasError {
		t.Fatalf("Failed to create classifier: %v", errMsg)
	}
	return resultMap["handle"].(int)
}

// TestClassifierCreation tests creating a classifier with builtin rules
func TestClassifierCreation(t *testing.T) {
	result := newClassifier(js.Value{}, []js.Value{js.ValueOf("builtin")})

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected map result, got %T", result)
	}
	if errMsg, hasError := resultMap["error"]; hasError {
		t.Fatalf("Failed to create classifier: %v", errMsg)
	}

	handle, hasHandle := resultMap["handle"]
	if !hasHandle {
		t.Fatal("Expected handle in result")
	}

	closeClassifier(js.Value{}, []js.Value{js.ValueOf(handle)})
}

// TestClassifierInvalidRules tests that a bad pattern is reported
func TestClassifierInvalidRules(t *testing.T) {
	result := newClassifier(js.Value{}, []js.Value{js.ValueOf(`[{"id":"x","name":"X","pattern":"all {"}]`)})

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected map result, got %T", result)
	}
	if _, hasError := resultMap["error"]; !hasError {
		t.Error("Expected error for invalid pattern")
	}
}

// TestClassifyContent tests classifying one document
func TestClassifyContent(t *testing.T) {
	handle := createClassifier(t, []*types.Rule{
		{ID: "test.memo", Name: "Memo", Pattern: `all { "^MEMO$", "^To:" }`},
	})
	defer closeClassifier(js.Value{}, []js.Value{js.ValueOf(handle)})

	resultStr := classify(js.Value{}, []js.Value{
		js.ValueOf(handle),
		js.ValueOf("MEMO\nTo: staff\nbody\n"),
		js.ValueOf("upload:1"),
	})

	jsonStr, ok := resultStr.(string)
	if !ok {
		t.Fatalf("Expected string result, got %T: %v", resultStr, resultStr)
	}

	var result scanner.ClassifyResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}

	if len(result.Scores) != 1 {
		t.Fatalf("Expected one score, got %d", len(result.Scores))
	}
	if result.Scores[0].Count != 1 {
		t.Errorf("Expected score 1, got %d", result.Scores[0].Count)
	}
	if result.Source != "upload:1" {
		t.Errorf("Expected source 'upload:1', got %q", result.Source)
	}
	if result.LineCount != 3 {
		t.Errorf("Expected 3 lines, got %d", result.LineCount)
	}
}

// TestClassifyBatch tests classifying several documents at once
func TestClassifyBatch(t *testing.T) {
	handle := createClassifier(t, []*types.Rule{
		{ID: "test.memo", Name: "Memo", Pattern: `all { "^MEMO$", "^To:" }`},
	})
	defer closeClassifier(js.Value{}, []js.Value{js.ValueOf(handle)})

	items := []scanner.ContentItem{
		{Source: "upload:1", Content: "MEMO\nTo: staff\n"},
		{Source: "upload:2", Content: "nothing here"},
		{Source: "upload:3", Content: "MEMO\nTo: board\n"},
	}

	itemsJSON, _ := json.Marshal(items)
	resultStr := classifyBatch(js.Value{}, []js.Value{
		js.ValueOf(handle),
		js.ValueOf(string(itemsJSON)),
	})

	jsonStr, ok := resultStr.(string)
	if !ok {
		t.Fatalf("Expected string result, got %T: %v", resultStr, resultStr)
	}

	var result scanner.BatchClassifyResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}

	if result.Total != 2 {
		t.Errorf("Expected 2 total scores, got %d", result.Total)
	}
	if len(result.Results) != 3 {
		t.Errorf("Expected 3 result items, got %d", len(result.Results))
	}
}

// TestGetBuiltinRules tests retrieving builtin rules
func TestGetBuiltinRules(t *testing.T) {
	result := getBuiltinRules(js.Value{}, nil)

	jsonStr, ok := result.(string)
	if !ok {
		if errMap, isMap := result.(map[string]interface{}); isMap {
			t.Fatalf("Got error: %v", errMap["error"])
		}
		t.Fatalf("Expected string result, got %T", result)
	}

	var rules []*types.Rule
	if err := json.Unmarshal([]byte(jsonStr), &rules); err != nil {
		t.Fatalf("Failed to parse rules: %v", err)
	}

	if len(rules) == 0 {
		t.Error("Expected at least one builtin rule")
	}

	for _, rule := range rules {
		if rule.ID == "" {
			t.Error("Rule missing ID")
		}
		if rule.Pattern == "" {
			t.Error("Rule missing Pattern")
		}
	}
}

// TestCloseClassifier tests classifier cleanup
func TestCloseClassifier(t *testing.T) {
	createResult := newClassifier(js.Value{}, []js.Value{js.ValueOf("builtin")})
	handle := createResult.(map[string]interface{})["handle"].(int)

	if closeResult := closeClassifier(js.Value{}, []js.Value{js.ValueOf(handle)}); closeResult != nil {
		t.Fatalf("Close failed: %v", closeResult)
	}

	// A closed classifier is no longer usable
	result := classify(js.Value{}, []js.Value{js.ValueOf(handle), js.ValueOf("test")})
	errMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatal("Expected error when using closed classifier")
	}
	if _, hasError := errMap["error"]; !hasError {
		t.Error("Expected error when using closed classifier")
	}
}

// TestInvalidHandle tests error handling for unknown handles
func TestInvalidHandle(t *testing.T) {
	result := classify(js.Value{}, []js.Value{
		js.ValueOf(99999),
		js.ValueOf("test"),
	})

	errMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected error map, got %T", result)
	}
	if _, hasError := errMap["error"]; !hasError {
		t.Error("Expected error for invalid handle")
	}
}

//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("DocsearchNewClassifier", js.FuncOf(newClassifier))
	js.Global().Set("DocsearchClassify", js.FuncOf(classify))
	js.Global().Set("DocsearchClassifyBatch", js.FuncOf(classifyBatch))
	js.Global().Set("DocsearchCloseClassifier", js.FuncOf(closeClassifier))
	js.Global().Set("DocsearchGetBuiltinRules", js.FuncOf(getBuiltinRules))

	// Keep WASM running
	<-make(chan struct{})
}

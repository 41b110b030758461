//go:build js && wasm

// Command yangwasm exposes validation to JavaScript as a global function
// validate(yang, xml) returning the result text.
package main

import (
	"syscall/js"

	"github.com/jacoelho/yang"
)

func main() {
	js.Global().Set("validate", js.FuncOf(validate))
	select {}
}

func validate(_ js.Value, args []js.Value) any {
	if len(args) != 2 || args[0].Type() != js.TypeString || args[1].Type() != js.TypeString {
		return "validate expects two string arguments: yang and xml"
	}
	return yang.Validate(args[0].String(), args[1].String()).String()
}

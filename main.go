// Package main is the entry point for the OpenIAP CLI.
// It connects to an OpenIAP server and runs an interactive test console.
package main

import (
	"openiap/cli/cmd"
)

func main() {
	cmd.Execute()
}

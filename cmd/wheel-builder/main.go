package main

import "github.com/lnotspotl/drake/cmd/wheel-builder/cmd"

func main() {
	cmd.Execute()
}

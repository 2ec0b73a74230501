package main

import "github.com/lnotspotl/drake/cmd/repack-deb/cmd"

func main() {
	cmd.Execute()
}

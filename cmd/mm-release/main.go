package main

import "github.com/magic-mount/releaser/cmd/mm-release/cmd"

func main() {
	cmd.Execute()
}

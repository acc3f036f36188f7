// Package main provides the tabler CLI.
package main

import "github.com/mesh-intelligence/tabler/internal/cli"

func main() {
	cli.Execute()
}

// Command linkstash is the CLI entry point.
package main

import "github.com/mesh-intelligence/linkstash/internal/cli"

func main() {
	cli.Execute()
}

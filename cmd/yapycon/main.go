package main

import (
	"os"

	"github.com/yapycon/yapycon/internal/cli"
)

var version = "dev" // Overridden by ldflags

func main() {
	os.Exit(cli.Execute(version))
}

package main

import (
	"os"

	"github.com/ariel-frischer/shiplog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

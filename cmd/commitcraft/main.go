package main

import (
	"os"

	"github.com/dshills/commitcraft/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}

package main

import (
	"os"

	"github.com/hashicorp-forge/strongbox/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gmsas95/medremind/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version

	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/provtab/internal/cli"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand(&cli.RootOptions{})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

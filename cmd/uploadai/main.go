package main

import (
	"fmt"
	"os"

	"upload-ai/cmd/uploadai/cmd"
	"upload-ai/internal/config"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Configuration Warning: %v\n", err)
	}

	cmd.Execute()
}

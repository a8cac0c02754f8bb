package main

import (
	"errors"
	"log"

	"gstdirectory/internal/cli"
	"gstdirectory/pkg/directory"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// an unreachable store at startup is fatal, like any other command error
		var se *directory.StorageError
		if errors.As(err, &se) {
			log.Fatalf("storage unavailable: %v", err)
		}
		log.Fatal(err)
	}
}

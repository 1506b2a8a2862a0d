package main

import (
	"os"

	provtagcmder "github.com/provtagio/provtag/cmd/provtag"
)

func main() {
	cmd := provtagcmder.NewProvtagCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

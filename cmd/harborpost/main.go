package main

import (
	"os"

	"github.com/harborpost/harborpost/boardservice"
)

func main() {
	if err := boardservice.Run(); err != nil {
		os.Exit(1)
	}
}

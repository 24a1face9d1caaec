package main

import (
	"log"

	"github.com/spigell/resume-ranker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"log"

	"github.com/printops/issue-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

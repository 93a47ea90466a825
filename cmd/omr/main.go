package main

import (
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/cmd/omr/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"os"

	"github.com/guilt/hashkit/cmd/hashkit/cli"
	"github.com/guilt/hashkit/pkg/log"
)

var logger = log.NewLogger()

func main() {
	if err := cli.New().Execute(); err != nil {
		logger.Error("hashkit failed", "err", err)
		os.Exit(1)
	}
}

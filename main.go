package main

import (
	"os"

	"github.com/ashneo76/ansible/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

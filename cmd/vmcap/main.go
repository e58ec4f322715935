package main

import (
	"os"

	"github.com/openziti/vmcap/cmd/vmcap/subcmd"
)

func main() {
	if err := subcmd.Execute(); err != nil {
		os.Exit(1)
	}
}

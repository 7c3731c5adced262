package main

import (
	"os"

	"github.com/rysweet/azure-tenant-grapher-sub006/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

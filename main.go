// main is the entry point for the codemonitor CLI.
package main

import (
	"github.com/huangsam/codemonitor/cmd"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/internal/iocache"
)

func main() {
	err := cmd.Execute()
	cmd.Shutdown()
	iocache.CloseStore()
	if err != nil {
		contract.LogFatal("Error", err)
	}
}

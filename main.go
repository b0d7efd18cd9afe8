// main is the entry point for the wvg CLI.
package main

import (
	"github.com/SebSchroeter/masterthesis/cmd"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		iocache.CloseStores()
		contract.LogFatal("Command failed", err)
	}
}

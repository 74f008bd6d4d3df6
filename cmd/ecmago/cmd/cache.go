package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecmago/engine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent bytecode cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the number of cached programs",
	RunE:  cacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached program",
	RunE:  cacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd, cacheClearCmd)
}

func openCacheForCLI() (*cache.Cache, error) {
	if cachePath == "" {
		return nil, fmt.Errorf("--cache <path> is required for the cache subcommand")
	}
	return cache.Open(cachePath, verbose)
}

func cacheInfo(_ *cobra.Command, _ []string) error {
	c, err := openCacheForCLI()
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.Count()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d cached program(s)\n", cachePath, n)
	return nil
}

func cacheClear(_ *cobra.Command, _ []string) error {
	c, err := openCacheForCLI()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return err
	}
	fmt.Printf("%s: cache cleared\n", cachePath)
	return nil
}

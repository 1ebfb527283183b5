// Package main provides the sppas command-line tool.
//
// Usage:
//
//	sppas [flags] <command> [args]
//
// Commands:
//
//	acm   - HTK acoustic models (info, merge, fill, replace, proto, pack, unpack)
//	lm    - n-gram language models (build, eval)
//	tga   - time-group analysis of syllable durations
//
// Configuration:
//
//	The CLI reads ~/.sppas/config.yaml, created with default values on
//	first use. SPPAS_* environment variables override it.
package main

import (
	"fmt"
	"os"

	"github.com/brigittebigi/sppas-sub001/cmd/sppas/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Command wavecraft is the host harness: it loads settings, wires the
// editor's core packages together, and dispatches to either the normal CLI
// (render/scan/convert subcommands, useful for headless batch jobs and
// scripting against the core without a GUI) or plugin-scanner worker mode.
package main

import (
	"fmt"
	"os"

	"github.com/wavecraft/wavecraft/internal/pluginscan"
)

func main() {
	if isScannerWorker(os.Args[1:]) {
		if err := pluginscan.RunWorker(os.Stdin, os.Stdout, unsupportedScanner); err != nil {
			fmt.Fprintln(os.Stderr, "plugin scanner worker exited:", err)
			os.Exit(1)
		}
		return
	}

	if err := RootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// scannerFlagName mirrors pluginscan's unexported scannerFlag constant; it
// is duplicated here (rather than exported from pluginscan) because it is
// a process-launch contract between this binary and itself, not part of
// pluginscan's public API.
const scannerFlagName = "--waveedit-plugin-scanner"

func isScannerWorker(args []string) bool {
	for _, a := range args {
		if a == scannerFlagName {
			return true
		}
	}
	return false
}

// unsupportedScanner is the worker-mode Scanner until a platform-specific
// plugin host (VST3/AU instantiation) is wired in; every scan reports
// failure rather than silently returning no descriptors.
func unsupportedScanner(path, format string) ([]pluginscan.Descriptor, error) {
	return nil, fmt.Errorf("plugin scanning is not implemented for format %q on this platform", format)
}

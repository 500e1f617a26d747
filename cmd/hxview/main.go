// Command hxview runs the demo server and generates state codecs.
//
// Configuration comes from, in increasing order of precedence: defaults, a
// YAML file (--config or HXVIEW_CONFIG_FILE), HXVIEW_<SECTION>_<OPTION>
// environment variables, and command-line flags.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Command sitectl inspects and validates the site from the command line: the route
// table, generated sitemaps and the dictionary and content files.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// The magmo command drives the MAGMO HI absorption pipeline: it finds
// and loads raw telescope recordings, calibrates and images them,
// extracts opacity spectra and builds the campaign catalogues.
package main

import "github.com/ktjameson/magmo-HI/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/verdantis/leafscan/cmd/leafscan/cmd"

func main() {
	cmd.Execute()
}

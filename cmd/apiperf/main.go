package main

import "apiperf/cmd"

func main() {
	cmd.Execute()
}

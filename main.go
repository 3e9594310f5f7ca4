package main

import "netscan/cmd"

func main() {
	cmd.Execute()
}

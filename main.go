package main

import "github.com/resolv-libs/resolv-data/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/pennywise-app/pennywise/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/tanq16/leccap/cmd"

func main() {
	cmd.Execute()
}

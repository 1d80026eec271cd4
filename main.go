package main

import "github.com/arguslabs/argus/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/eslam-almahdy/RSS-1.0/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/deploymenttheory/go-mfs/cmd"

func main() {
	cmd.Execute()
}

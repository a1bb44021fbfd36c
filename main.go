package main

import "github.com/bctnry/depotview/cmd"

func main() {
	cmd.Execute()
}

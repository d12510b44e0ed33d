package main

import "github.com/markb/raql/cmd"

func main() {
	cmd.Execute()
}

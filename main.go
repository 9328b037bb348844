package main

import (
	"segstitch/cmd"
)

func main() {
	cmd.Execute()
}

package main

import "github.com/kiwis08/record/cmd"

func main() {
	cmd.Execute()
}

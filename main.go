package main

import "github.com/raudabaugh/release-notes-assist/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/rainbowlabs/notionpush/cmd"

func main() {
	cmd.Execute()
}

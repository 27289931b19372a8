package main

import "autocopy/cmd"

func main() {
	cmd.Execute()
}

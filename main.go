package main

import "adminseed/cmd"

func main() {
	cmd.Execute()
}

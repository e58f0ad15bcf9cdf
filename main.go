package main

import "github.com/structsync/structsync/cmd"

func main() {
	cmd.Execute()
}

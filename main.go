package main

import "github.com/chadmayfield/wxlogd/cmd"

func main() {
	cmd.Execute()
}

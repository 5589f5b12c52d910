package main

import (
	"github.com/luma/ddp/cmd"
)

func main() {
	cmd.Execute()
}

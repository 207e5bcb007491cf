package main

import (
	"github.com/fhnwtools/unisync/cmd"
	"github.com/fhnwtools/unisync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}

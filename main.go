package main

import (
	"os"

	"github.com/rhyred/routerdash/cmd"
)

func main() {
	cmd.Execute(os.Args[1:])
}

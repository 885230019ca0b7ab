package main

import (
	"github.com/finza-app/finza/cmd/finza/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/exteriorpros/paintstudio/internal/cli"
)

func main() {
	cli.Execute()
}

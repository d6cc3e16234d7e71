package main

import (
	cmd "github.com/nyawc-go/crawler/internal/cli"
)

func main() {
	cmd.Execute()
}

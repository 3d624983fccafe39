package main

import "github.com/gustavorteuber/fortune-tiger-tdd/internal/cli"

func main() {
	cli.Execute()
}

// Package main provides the tidecalc command line tool.
package main

import "go.ngs.io/tidecalc/internal/cli"

func main() {
	cli.Execute()
}

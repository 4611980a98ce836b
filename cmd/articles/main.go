// Package main provides the entry point for the articles CLI.
package main

import (
	"github.com/lansepyy/article-admin/internal/cli"
)

func main() {
	cli.Execute()
}

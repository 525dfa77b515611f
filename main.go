// The main package for the filmbro executable.
package main

import "github.com/wildanrfq/filmbro/cmd"

func main() {
	cmd.Execute()
}

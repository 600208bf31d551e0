// The main package for the frontier-crawler executable.
package main

import "github.com/JakeFAU/frontier-crawler/cmd"

func main() {
	cmd.Execute()
}

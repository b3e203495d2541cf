package main

import "github.com/sqlparrot/sqlparrot/cmd/parrot/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/Tiliavir/architrack/cmd"

func main() {
	cmd.Execute()
}

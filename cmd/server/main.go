package main

import "github.com/eventnest/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}

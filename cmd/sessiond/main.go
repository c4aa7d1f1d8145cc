package main

import "github.com/dmitrymomot/sessionkit/cmd/sessiond/cmd"

func main() {
	cmd.Execute()
}

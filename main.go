package main

import "github.com/reinferio/saltfish/cmd"

func main() {
	cmd.Execute()
}

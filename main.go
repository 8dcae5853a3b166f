package main

import "github.com/ethanolivertroy/depgate/cmd"

func main() {
	cmd.Execute()
}

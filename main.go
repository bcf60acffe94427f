package main

import "github.com/Mohsinsiddi/nftctl/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/ardanlabs/dapp/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}

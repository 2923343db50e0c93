package main

import "github.com/codegrana/storefront-payments/cmd"

func main() {
	cmd.Execute()
}

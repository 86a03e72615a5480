package main

import "github.com/railwayapp/slipway/cmd/slipway"

func main() {
	slipway.Execute()
}

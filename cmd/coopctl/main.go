package main

import "coopshares-backend/internal/cli"

func main() {
	cli.Main()
}

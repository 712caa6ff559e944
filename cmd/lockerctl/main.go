package main

import "locker/internal/client/cli"

func main() {
	cli.Execute()
}

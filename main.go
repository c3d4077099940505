package main

import "github.com/fauu/sway-wait-windows/cmd"

func main() {
	cmd.Execute()
}

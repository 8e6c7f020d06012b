package main

import "github.com/matsu911/Serum/cmd"

func main() {
	cmd.Execute()
}

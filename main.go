package main

import "github.com/JohnWoodman/fes/cmd"

func main() {
	cmd.Execute()
}

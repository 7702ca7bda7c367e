/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/moamenhredeen/oasc/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/gaurav-prasanna/jobsnap/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/dbsmedya/docschema/cmd/docschema/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/oshokin/conda-bootstrap/cmd/conda-bootstrap/cmd"

func main() {
	cmd.Execute()
}

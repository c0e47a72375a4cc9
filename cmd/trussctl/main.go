package main

import "github.com/trussvision/trussvision/backend-go/cmd/trussctl/cmd"

func main() {
	cmd.Execute()
}

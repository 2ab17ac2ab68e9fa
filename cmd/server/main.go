package main

import "portfolio/backend/cmd/server/cmd"

func main() {
	cmd.Execute()
}

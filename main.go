package main

import "github.com/frahmantamala/bizanalytics/cmd"

func main() {
	cmd.Execute()
}

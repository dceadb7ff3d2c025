package main

import "github.com/frahmantamala/access-audit-reports/cmd"

func main() {
	cmd.Execute()
}

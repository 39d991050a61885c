package main

import (
	"os"

	"github.com/zhaddad/aeromind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

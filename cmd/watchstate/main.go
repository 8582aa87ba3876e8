package main

import (
	"os"
)

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	os.Exit(exitCode(err))
}

package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ce *cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, "Error:", ce.msg)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitInternalError)
	}
}

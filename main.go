package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ipchama/dhcpsentry/cmd"
)

func main() {

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, cmd.ErrRogueFound) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

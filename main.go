package main

import (
	"fmt"

	"github.com/INemesisI/weave/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}

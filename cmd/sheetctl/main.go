package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/sheetkeeper/internal/admin"
	"github.com/fatih/color"
)

func main() {
	if err := admin.NewRootCmd(admin.Deps{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/osvaldoandrade/anchoridl/pkg/anchoridl"
)

func main() {
	os.Exit(anchoridl.Execute())
}

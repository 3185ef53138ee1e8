// main.go: wpconfig container entrypoint
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"

	"github.com/agilira/wpconfig/cmd/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:], cli.OSRuntime()))
}

// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/modloader/modloader/cmd/modloader"

func main() {
	cmd.Execute()
}

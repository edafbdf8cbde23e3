// Command opsdesk renders prompt templates against issues, pull requests and
// local tasks and hands them to an agent CLI.
package main

import (
	"os"

	"github.com/valksor/go-opsdesk/cmd/opsdesk/commands"
)

func main() {
	os.Exit(commands.Main())
}

package main

import (
	"bunker-backend/cmd/bunker-cli/commands"
	"bunker-backend/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}

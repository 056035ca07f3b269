package main

import (
	"os"

	"github.com/angelmondragon/invoicedesk-backend/cmd/admin/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"kiosk/internal/ipc"
)

func main() {
	cmd := "activate"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := ipc.SendCommand(cmd); err != nil {
		fmt.Println("kioskd not running:", err)
		os.Exit(1)
	}
}

// gametable-dump prints the live BWAPI shared game table, which is handy
// when a match refuses to start because of leftover engine processes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"bwshotgun/gametable"
)

func main() {
	path := flag.String("path", gametable.DefaultPath(), "Location of the shared game table segment")
	flag.Parse()

	reader := gametable.NewReader(*path)
	defer func(reader *gametable.Reader) {
		_ = reader.Close()
	}(reader)

	table, err := reader.Snapshot()
	if errors.Is(err, gametable.ErrUnavailable) {
		fmt.Printf("No game table at '%s', no BWAPI server is running.\n", *path)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Game table at '%s' (%d of %d slots connected):\n",
		*path, table.ConnectedCount(), gametable.SlotCount)
	for i, slot := range table.Slots {
		fmt.Printf("  slot %d: pid=%-8d connected=%-5t keepAlive=%d\n",
			i, slot.ServerProcessID, slot.Connected, slot.LastKeepAlive)
	}
}

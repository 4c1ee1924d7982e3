// Package gametable reads the shared game list that BWAPI publishes for
// server discovery. The table is owned entirely by the engine processes;
// this package only observes it.
package gametable

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
)

// SegmentName is the well-known name of the shared region. On Windows BWAPI
// creates it as the file mapping `Local\bwapi_shared_memory_game_list`; Wine
// backs named mappings with a plain file, which is what we map here.
const SegmentName = "bwapi_shared_memory_game_list"

// Layout of one slot as written by BWAPI (repr C):
// u32 server process id, bool connected + 3 bytes padding, u32 keep-alive.
const (
	SlotCount = 8
	slotSize  = 12
	TableSize = SlotCount * slotSize

	offProcessID = 0
	offConnected = 4
	offKeepAlive = 8
)

// ErrUnavailable means the shared region does not exist (yet). The engine
// process that creates it may simply not have started; callers retry.
var ErrUnavailable = errors.New("game table is not available")

// Slot is one decoded entry of the shared game list.
type Slot struct {
	ServerProcessID uint32
	Connected       bool
	LastKeepAlive   uint32
}

// Table is a point-in-time value copy of the shared game list. The engine
// writes the region without any locking, so a copy is best-effort only and
// individual fields may be torn.
type Table struct {
	Slots [SlotCount]Slot
}

// ConnectedCount returns the number of slots with a connected client.
func (t *Table) ConnectedCount() int {
	count := 0
	for _, slot := range t.Slots {
		if slot.Connected {
			count++
		}
	}
	return count
}

// HasFreeSlot reports whether any engine instance is waiting for a client,
// which is the signal that a freshly launched server is ready to be joined.
func (t *Table) HasFreeSlot() bool {
	for _, slot := range t.Slots {
		if slot.ServerProcessID != 0 && !slot.Connected {
			return true
		}
	}
	return false
}

// AllSlotsFilled reports whether every occupied slot has a connected client.
// Vacuously true when the table is empty.
func (t *Table) AllSlotsFilled() bool {
	for _, slot := range t.Slots {
		if slot.ServerProcessID != 0 && !slot.Connected {
			return false
		}
	}
	return true
}

func decodeTable(data []byte) *Table {
	table := &Table{}
	for i := 0; i < SlotCount; i++ {
		rec := data[i*slotSize : (i+1)*slotSize]
		table.Slots[i] = Slot{
			ServerProcessID: binary.LittleEndian.Uint32(rec[offProcessID:]),
			Connected:       rec[offConnected] != 0,
			LastKeepAlive:   binary.LittleEndian.Uint32(rec[offKeepAlive:]),
		}
	}
	return table
}

// DefaultPath returns the path the engine publishes the table under.
func DefaultPath() string {
	if _, err := os.Stat("/dev/shm"); err == nil {
		return filepath.Join("/dev/shm", SegmentName)
	}
	return filepath.Join(os.TempDir(), SegmentName)
}

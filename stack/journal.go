package stack

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/shimmeringbee/bridge/commissioning"
	"os"
	"sync"
	"time"
)

// Journal remembers whether the node has ever completed network steering.
type Journal interface {
	Commissioned() bool
	Record(id commissioning.Identity) error
}

type Record struct {
	ExtendedPANID  string
	PANID          string
	ShortAddress   string
	Channel        uint8
	CommissionedAt time.Time
}

func newRecord(id commissioning.Identity) Record {
	return Record{
		ExtendedPANID:  fmt.Sprintf("%016x", uint64(id.ExtendedPANID)),
		PANID:          fmt.Sprintf("0x%04x", uint16(id.PANID)),
		ShortAddress:   fmt.Sprintf("0x%04x", uint16(id.ShortAddress)),
		Channel:        id.Channel,
		CommissionedAt: time.Now(),
	}
}

type FileJournal struct {
	path string

	lock   sync.RWMutex
	record *Record
}

// OpenFileJournal loads the record at path, a missing file is a factory new node.
func OpenFileJournal(path string) (*FileJournal, error) {
	j := &FileJournal{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return j, nil
		}

		return nil, fmt.Errorf("failed to read commissioning record: %w", err)
	}

	r := &Record{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse commissioning record: %w", err)
	}

	j.record = r
	return j, nil
}

func (j *FileJournal) Commissioned() bool {
	j.lock.RLock()
	defer j.lock.RUnlock()

	return j.record != nil
}

func (j *FileJournal) Last() (Record, bool) {
	j.lock.RLock()
	defer j.lock.RUnlock()

	if j.record == nil {
		return Record{}, false
	}

	return *j.record, true
}

func (j *FileJournal) Record(id commissioning.Identity) error {
	r := newRecord(id)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal commissioning record: %w", err)
	}

	j.lock.Lock()
	defer j.lock.Unlock()

	if err := safeWriteFile(j.path, data, 0600); err != nil {
		return err
	}

	j.record = &r
	return nil
}

type MemoryJournal struct {
	lock    sync.RWMutex
	records []commissioning.Identity
}

func (j *MemoryJournal) Commissioned() bool {
	j.lock.RLock()
	defer j.lock.RUnlock()

	return len(j.records) > 0
}

func (j *MemoryJournal) Record(id commissioning.Identity) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	j.records = append(j.records, id)
	return nil
}

func (j *MemoryJournal) Records() []commissioning.Identity {
	j.lock.RLock()
	defer j.lock.RUnlock()

	return append([]commissioning.Identity(nil), j.records...)
}

// safeWriteFile replaces name without ever leaving a partially written file in its place.
func safeWriteFile(name string, data []byte, perm os.FileMode) error {
	ut := time.Now().UnixNano() / int64(time.Millisecond)
	baseName := fmt.Sprintf("%s-%d", name, ut)
	newName := fmt.Sprintf("%s-new", baseName)
	oldName := fmt.Sprintf("%s-old", baseName)

	if err := os.WriteFile(newName, data, perm); err != nil {
		return fmt.Errorf("failed to write new file: %w", err)
	}

	_, err := os.Stat(name)
	oldExists := !os.IsNotExist(err)

	if oldExists {
		if err := os.Rename(name, oldName); err != nil {
			return fmt.Errorf("failed to move old file to temporary location: %w", err)
		}
	}

	if err := os.Rename(newName, name); err != nil {
		return fmt.Errorf("failed to move new file to file location: %w", err)
	}

	if oldExists {
		if err := os.Remove(oldName); err != nil {
			return fmt.Errorf("failed to remove old file: %w", err)
		}
	}

	return nil
}

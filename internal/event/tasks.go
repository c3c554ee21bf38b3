package event

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// LoadTaskSnapshots reads all task-list files under logHome/todos/ and
// returns one KindTaskSnapshot event per file. Files named
// "{sessionID}-agent-{agentID}.json" belong to a spawned sub-task's own
// thread and are tagged as sidechain events; their AgentID is the key for
// resolving the owning tool invocation in the parent session.
func LoadTaskSnapshots(logHome string) ([]Event, error) {
	dir := filepath.Join(logHome, "todos")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var events []Event
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		var items []TaskItem
		if err := json.Unmarshal(data, &items); err != nil {
			continue
		}
		if len(items) == 0 {
			continue
		}

		sessionID, agentID := parseTaskFilename(entry.Name())
		events = append(events, Event{
			SessionID: sessionID,
			Kind:      KindTaskSnapshot,
			Sidechain: agentID != "",
			Tasks:     &TaskSnapshot{AgentID: agentID, Items: items},
		})
	}
	return events, nil
}

// parseTaskFilename extracts session and agent IDs from a filename like
// "{sessionID}-agent-{agentID}.json".
func parseTaskFilename(name string) (sessionID, agentID string) {
	name = strings.TrimSuffix(name, ".json")
	const sep = "-agent-"
	idx := strings.Index(name, sep)
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+len(sep):]
}

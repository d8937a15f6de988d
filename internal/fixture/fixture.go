// Package fixture reads action batches from YAML or JSON files. JSON is
// accepted because it is a subset of YAML.
//
//	actor: demo
//	batches:
//	  - name: folders
//	    actions:
//	      - {type: file.create, id: F1, payload: {name: Reports, type: folder}}
//
// A file may list a single batch under a top-level actions key instead.
package fixture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"quix/internal/domain/models"
	"quix/internal/service/eventsourcing"
)

// File is a decoded fixture
type File struct {
	Actor   string   `yaml:"actor,omitempty"`
	Actions []Action `yaml:"actions,omitempty"`
	Batches []Batch  `yaml:"batches,omitempty"`
}

// Batch is one atomic group of actions
type Batch struct {
	Name    string   `yaml:"name,omitempty"`
	Actions []Action `yaml:"actions"`
}

// Action mirrors models.Action with a free-form payload
type Action struct {
	Type    string                 `yaml:"type"`
	ID      string                 `yaml:"id"`
	Payload map[string]interface{} `yaml:"payload,omitempty"`
}

// Load decodes a fixture. Unknown keys are rejected so typos surface early.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("fixture is empty")
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if len(f.Actions) > 0 && len(f.Batches) > 0 {
		return nil, fmt.Errorf("fixture sets both actions and batches")
	}
	return &f, nil
}

// LoadFile opens and decodes the fixture at path
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// ActionBatches converts the fixture into ordered action batches. Action
// types are checked against the registered reducers here, so a typo is
// reported with its position before anything is emitted.
func (f *File) ActionBatches() ([][]models.Action, error) {
	batches := f.Batches
	if len(f.Actions) > 0 {
		batches = []Batch{{Actions: f.Actions}}
	}

	out := make([][]models.Action, 0, len(batches))
	for i, b := range batches {
		actions := make([]models.Action, 0, len(b.Actions))
		for j, a := range b.Actions {
			action, err := a.toModel()
			if err != nil {
				return nil, fmt.Errorf("batch %d action %d: %w", i, j, err)
			}
			actions = append(actions, action)
		}
		out = append(out, actions)
	}
	return out, nil
}

func (a Action) toModel() (models.Action, error) {
	if a.Type == "" || a.ID == "" {
		return models.Action{}, fmt.Errorf("type and id are required")
	}
	if !eventsourcing.KnownAction(models.ActionType(a.Type)) {
		return models.Action{}, fmt.Errorf("unknown action type %q", a.Type)
	}
	var payload interface{}
	if a.Payload != nil {
		payload = a.Payload
	}
	action, err := models.NewAction(models.ActionType(a.Type), a.ID, payload)
	if err != nil {
		return models.Action{}, fmt.Errorf("encode payload of %s: %w", a.ID, err)
	}
	return action, nil
}

// Encode writes batches in the batches form, the inverse of Load.
// Batch names are taken from names when it has an entry for the index.
func Encode(w io.Writer, actor string, batches [][]models.Action, names []string) error {
	f := File{Actor: actor}
	for i, actions := range batches {
		b := Batch{}
		if i < len(names) {
			b.Name = names[i]
		}
		for _, a := range actions {
			var payload map[string]interface{}
			if len(a.Payload) > 0 {
				if err := json.Unmarshal(a.Payload, &payload); err != nil {
					return fmt.Errorf("decode payload of %s: %w", a.ID, err)
				}
			}
			b.Actions = append(b.Actions, Action{Type: string(a.Type), ID: a.ID, Payload: payload})
		}
		f.Batches = append(f.Batches, b)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return enc.Close()
}

// FromJournal groups journal entries by batch, keeping commit order. The
// batch ids become the batch names.
func FromJournal(entries []models.JournalEntry) ([][]models.Action, []string) {
	var batches [][]models.Action
	var names []string
	for _, e := range entries {
		if len(names) == 0 || names[len(names)-1] != e.BatchID {
			names = append(names, e.BatchID)
			batches = append(batches, nil)
		}
		a := e.Action()
		a.ActorID = ""
		batches[len(batches)-1] = append(batches[len(batches)-1], a)
	}
	return batches, names
}

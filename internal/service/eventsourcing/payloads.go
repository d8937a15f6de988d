package eventsourcing

import (
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"quix/internal/config"
	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/mpath"
)

type validatable interface {
	Validate() error
}

// decode unmarshals an action payload into dst and validates it. Both
// malformed JSON and rule violations surface as a ValidationError.
func decode(a models.Action, dst validatable) error {
	raw := a.Payload
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.NewValidationError("invalid %s payload: %v", a.Type, err)
	}
	if err := dst.Validate(); err != nil {
		return domain.NewValidationError("invalid %s payload: %v", a.Type, err)
	}
	return nil
}

var nameRules = []validation.Rule{
	validation.Required,
	validation.Length(1, config.MaxNameLength),
}

// segment validates an id that will become an mpath segment
func segment(value interface{}) error {
	var id string
	switch v := value.(type) {
	case string:
		id = v
	case *string:
		if v == nil {
			return nil
		}
		id = *v
	default:
		return fmt.Errorf("unexpected id type %T", value)
	}
	if !mpath.ValidID(id) {
		return errors.New("must be non-empty and must not contain " + mpath.Separator)
	}
	return nil
}

func pathItem(value interface{}) error {
	item, ok := value.(models.PathItem)
	if !ok {
		return fmt.Errorf("unexpected path item type %T", value)
	}
	return segment(item.ID)
}

func pathRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(0, config.MaxTreeDepth-1),
		validation.Each(validation.By(pathItem)),
	}
}

type notebookCreatePayload struct {
	Name    string            `json:"name"`
	Path    []models.PathItem `json:"path"`
	IsLiked bool              `json:"isLiked"`
}

func (p *notebookCreatePayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, nameRules...),
		validation.Field(&p.Path, pathRules()...),
	)
}

type namePayload struct {
	Name string `json:"name"`
}

func (p *namePayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, nameRules...),
	)
}

type likedPayload struct {
	IsLiked *bool `json:"isLiked"`
}

func (p *likedPayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.IsLiked, validation.NotNil),
	)
}

// contentSize bounds note content in bytes. validation.Length counts runes,
// which would let multi-byte text run several times over the limit.
func contentSize(value interface{}) error {
	var content string
	switch v := value.(type) {
	case string:
		content = v
	case *string:
		if v == nil {
			return nil
		}
		content = *v
	default:
		return fmt.Errorf("unexpected content type %T", value)
	}
	if len(content) > config.MaxContentLength {
		return fmt.Errorf("must be at most %d bytes, got %d", config.MaxContentLength, len(content))
	}
	return nil
}

type noteCreatePayload struct {
	NotebookID string `json:"notebookId"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Content    string `json:"content"`
}

func (p *noteCreatePayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.NotebookID, validation.Required),
		validation.Field(&p.Name, nameRules...),
		validation.Field(&p.Type, validation.Required, validation.Length(1, config.MaxNoteTypeLength)),
		validation.Field(&p.Content, validation.By(contentSize)),
	)
}

type contentPayload struct {
	Content *string `json:"content"`
}

func (p *contentPayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Content, validation.NotNil, validation.By(contentSize)),
	)
}

type reorderPayload struct {
	To *int `json:"to"`
}

// Range is checked against the live siblings when the action is folded
func (p *reorderPayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.To, validation.NotNil),
	)
}

type noteMovePayload struct {
	NotebookID string `json:"notebookId"`
}

func (p *noteMovePayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.NotebookID, validation.Required),
	)
}

type fileCreatePayload struct {
	Name string            `json:"name"`
	Type models.FileType   `json:"type"`
	Path []models.PathItem `json:"path"`
}

func (p *fileCreatePayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, nameRules...),
		validation.Field(&p.Type, validation.Required, validation.In(models.FileTypeFolder)),
		validation.Field(&p.Path, pathRules()...),
	)
}

// fileMovePayload moves a node under ParentID; null moves it to the root
type fileMovePayload struct {
	ParentID *string `json:"parentId"`
}

func (p *fileMovePayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ParentID, validation.By(segment)),
	)
}

// Пакет dto описывает тела запросов и ответов HTTP API редактора.
package dto

import (
	"time"

	"github.com/aisa-it/docedit/internal/docedit/command"
	"github.com/aisa-it/docedit/internal/docedit/config"
)

type DocumentLight struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

type Document struct {
	DocumentLight

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Data      string    `json:"data"`
}

type DocumentRequest struct {
	Name string `json:"name" validate:"documentName"`
	Data string `json:"data"`
}

// DocumentUpdateRequest пустое поле не меняет значение.
type DocumentUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,documentName"`
	Data *string `json:"data"`
}

type DocumentList struct {
	Count  int64           `json:"count"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
	Result []DocumentLight `json:"result"`
}

type SessionRequest struct {
	DocumentId string `json:"document_id" validate:"omitempty,uuid4"`
	Data       string `json:"data"`
}

type Session struct {
	Id         string                   `json:"id"`
	DocumentId string                   `json:"document_id,omitempty"`
	Seq        uint64                   `json:"seq"`
	Commands   map[string]command.State `json:"commands"`
}

type CommandRequest struct {
	Value any `json:"value"`
}

// Commands состояния команд и справочники, нужные панели инструментов.
type Commands struct {
	Seq              uint64                   `json:"seq"`
	States           map[string]command.State `json:"states"`
	PlaceholderTypes []string                 `json:"placeholder_types"`
	ZIndexes         []config.NamedOption     `json:"zindexes"`
}

// SelectionRequest выделение задается путями в дереве модели.
// Заполненный On выделяет один элемент, иначе используются Anchor и Focus.
type SelectionRequest struct {
	On     []int          `json:"on,omitempty" validate:"path"`
	Anchor *PositionValue `json:"anchor,omitempty"`
	Focus  *PositionValue `json:"focus,omitempty"`
}

type PositionValue struct {
	Path   []int `json:"path" validate:"path"`
	Offset int   `json:"offset" validate:"gte=0"`
}

// PointerRequest событие указателя. Цель задается путем в живом представлении.
type PointerRequest struct {
	Type       string  `json:"type" validate:"required,oneof=mousedown mousemove mouseup mouseleave dragstart"`
	Buttons    int     `json:"buttons"`
	MovementX  float64 `json:"movement_x"`
	MovementY  float64 `json:"movement_y"`
	TargetPath []int   `json:"target_path" validate:"path"`
}

type PointerResponse struct {
	Handled bool   `json:"handled"`
	Seq     uint64 `json:"seq"`
}

type Data struct {
	Seq  uint64 `json:"seq"`
	Data string `json:"data"`
}

const (
	StateMessageType = "state"
	DataMessageType  = "data"
)

// StateMessage сообщение ленты состояния сессии.
type StateMessage struct {
	Type     string                   `json:"type"`
	Seq      uint64                   `json:"seq"`
	Commands map[string]command.State `json:"commands,omitempty"`
	Data     string                   `json:"data,omitempty"`
}

package models

// Inbound request payloads for the HTTP API.

type AddCardInput struct {
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id"`
	PackIDs    []string   `json:"pack_ids"`
}

type ReviewInput struct {
	CardID  string `json:"card_id"`
	Quality int    `json:"quality"`
}

type UndoInput struct {
	CardID string `json:"card_id"`
}

type PackInput struct {
	Name string `json:"name"`
}

type RenamePackInput struct {
	PackID string `json:"pack_id"`
	Name   string `json:"name"`
}

type PackAssignmentInput struct {
	CardID string `json:"card_id"`
	PackID string `json:"pack_id"`
}

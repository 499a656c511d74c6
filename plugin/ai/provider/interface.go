// Package provider implements the generation backend adapters. Every
// backend, local or remote, satisfies the same Generator contract; the
// routing engine only ever decides which one to call.
package provider

import (
	"context"
	"encoding/json"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ToolSpec describes a tool the backend may call.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// GenerateRequest is the uniform request every backend accepts.
type GenerateRequest struct {
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	Tools        []ToolSpec
}

// GenerateResponse is the uniform response every backend returns.
type GenerateResponse struct {
	Content    string
	TokensUsed int
}

// Generator is the backend adapter contract. Failures must surface as a
// typed error; there is no fallback-on-failure in the routing engine.
type Generator interface {
	// Name returns the backend identifier (model name).
	Name() string

	// Generate produces a completion for the request.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

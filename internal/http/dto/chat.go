package dto

import "taskdeck.app/server/common/llm"

// ChatRequest carries a new user message plus the caller-owned conversation
// history. The server keeps no conversation state between turns.
type ChatRequest struct {
	Message string        `json:"message" binding:"required"`
	History []llm.Message `json:"history"`
}

type ChatResponse struct {
	Reply    string        `json:"reply"`
	Messages []llm.Message `json:"messages"`
}

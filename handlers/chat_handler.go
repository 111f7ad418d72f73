package handlers

import (
	"context"
	"net/http"

	"github.com/BowmanStephen/rep-co-pilot/services/gateway"
	"github.com/BowmanStephen/rep-co-pilot/utils"
	"go.uber.org/zap"
)

// ChatRequest represents a rep prompt for the assistant
type ChatRequest struct {
	Prompt       string        `json:"prompt" validate:"required,notblank,max=4000"`
	TabType      string        `json:"tabType,omitempty" validate:"max=32"`
	CoachingMode *bool         `json:"coachingMode,omitempty"`
	Spend        *SpendRequest `json:"spend,omitempty"`
	HCPID        string        `json:"hcpId,omitempty" validate:"max=64"`
}

// EnhanceRequest represents a prompt to rewrite
type EnhanceRequest struct {
	Prompt string `json:"prompt" validate:"required,notblank,max=2000"`
}

// ChatService defines the gateway operations the handler needs
type ChatService interface {
	Chat(ctx context.Context, in gateway.ChatInput) (*gateway.ChatResult, error)
	EnhancePrompt(ctx context.Context, prompt string) (*gateway.EnhanceResult, error)
}

// ChatHandler handles chat and prompt enhancement requests
type ChatHandler struct {
	gateway ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(gw ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		gateway: gw,
		logger:  logger,
	}
}

// HandleChat handles POST /api/v1/chat. A blocked prompt is a 200 with blocked=true.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.gateway.Chat(r.Context(), gateway.ChatInput{
		Prompt:       req.Prompt,
		TabType:      req.TabType,
		CoachingMode: req.CoachingMode,
		Spend:        req.Spend.toInput(),
		HCPID:        req.HCPID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// HandleEnhancePrompt handles POST /api/v1/enhance-prompt
func (h *ChatHandler) HandleEnhancePrompt(w http.ResponseWriter, r *http.Request) {
	var req EnhanceRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.gateway.EnhancePrompt(r.Context(), req.Prompt)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

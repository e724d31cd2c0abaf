package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/types"
	"github.com/talentcopilot/backend/internal/utils"
)

// AgentClient is the reply-generation capability: given conversation context
// it produces either a direct reply or a proposed gated action. It never
// executes anything itself.
type AgentClient interface {
	Propose(ctx context.Context, turn TurnContext) (*TurnProposal, error)
	// Summarize folds a window of messages into the running summary.
	Summarize(ctx context.Context, existingSummary string, window []AgentMessage) (string, error)
}

type AgentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TurnContext struct {
	Messages  []AgentMessage
	Summary   string
	Workspace string
}

// TurnProposal carries exactly one of Reply or Action.
type TurnProposal struct {
	Reply  string
	Action *ActionProposal
}

const systemPrompt = `You are TalentCopilot, an AI assistant for recruiting teams. You help with:
- Answering questions about candidate experience and skills (using workspace context when available).
- Answering questions about ingested GitHub repositories (structure, stack, quality).
- Generating interview questions and evaluation notes.

Critical rules:
1. When the user provides a repository URL and wants you to use it, you MUST call request_repo_ingestion instead of answering; the system will ask the user for approval before anything is crawled.
2. When the user asks to save a parsed candidate profile, you MUST call request_save_candidate; the system will ask the user for approval before anything is saved.
3. For normal chat, just respond. Never perform workspace changes without the confirmation flow.

Respond in a helpful, professional tone.`

const summarizePrompt = "Summarize this conversation history in a short paragraph for context. Keep only key facts, decisions, and topics."

type agentClient struct {
	httpClient *http.Client
	log        *logger.Logger
	apiKey     string
	baseURL    string
	chatModel  string
}

func NewAgentClient(log *logger.Logger) (AgentClient, error) {
	serviceLog := log.With("service", "AgentClient")
	apiKey := utils.GetEnv("OPENAI_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	baseURL := utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com/v1", log)
	chatModel := utils.GetEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini", log)
	return &agentClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log:       serviceLog,
		apiKey:    apiKey,
		baseURL:   baseURL,
		chatModel: chatModel,
	}, nil
}

type chatCompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []json.RawMessage `json:"messages"`
	Tools       []chatTool        `json:"tools,omitempty"`
	Temperature float32           `json:"temperature"`
}

type chatTool struct {
	Type     string           `json:"type"`
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

var agentTools = []chatTool{
	{
		Type: "function",
		Function: chatToolFunction{
			Name:        "request_repo_ingestion",
			Description: "Call this when the user wants a repository ingested. The system will ask the user for confirmation before crawling.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"repo_url": {"type": "string", "description": "The repository URL to ingest"}
				},
				"required": ["repo_url"]
			}`),
		},
	},
	{
		Type: "function",
		Function: chatToolFunction{
			Name:        "request_save_candidate",
			Description: "Call this when the user wants a parsed candidate profile saved to the workspace. The system will ask the user for confirmation before saving.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"contact_info": {"type": "object", "additionalProperties": {"type": "string"}},
					"skills": {"type": "array", "items": {"type": "string"}},
					"experience": {"type": "array", "items": {"type": "object"}},
					"projects": {"type": "array", "items": {"type": "object"}},
					"education": {"type": "array", "items": {"type": "object"}}
				}
			}`),
		},
	},
}

func (c *agentClient) Propose(ctx context.Context, turn TurnContext) (*TurnProposal, error) {
	msgs := buildChatMessages(buildSystem(turn.Summary, turn.Workspace), turn.Messages)
	resp, err := c.complete(ctx, chatCompletionRequest{
		Model:       c.chatModel,
		Messages:    msgs,
		Tools:       agentTools,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("agent returned no choices")
	}
	choice := resp.Choices[0].Message
	for _, tc := range choice.ToolCalls {
		switch tc.Function.Name {
		case "request_repo_ingestion":
			var args IngestRepoPayload
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("parse request_repo_ingestion args: %w", err)
			}
			if args.RepoURL == "" {
				continue
			}
			return &TurnProposal{Action: &ActionProposal{
				Kind:       types.ActionIngestRepo,
				IngestRepo: &args,
			}}, nil
		case "request_save_candidate":
			var args CandidateProfile
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("parse request_save_candidate args: %w", err)
			}
			return &TurnProposal{Action: &ActionProposal{
				Kind:          types.ActionSaveCandidate,
				SaveCandidate: &args,
			}}, nil
		}
	}
	return &TurnProposal{Reply: choice.Content}, nil
}

func (c *agentClient) Summarize(ctx context.Context, existingSummary string, window []AgentMessage) (string, error) {
	var transcript bytes.Buffer
	if existingSummary != "" {
		transcript.WriteString("Earlier summary:\n" + existingSummary + "\n\n")
	}
	for _, m := range window {
		content := m.Content
		if len(content) > 500 {
			content = content[:500]
		}
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, content)
	}
	msgs := buildChatMessages(summarizePrompt, []AgentMessage{
		{Role: types.RoleUser, Content: transcript.String()},
	})
	resp, err := c.complete(ctx, chatCompletionRequest{
		Model:       c.chatModel,
		Messages:    msgs,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("agent returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildSystem(summary, workspace string) string {
	system := systemPrompt
	if summary != "" {
		system += "\n\nSession summary (earlier context):\n" + summary
	}
	if workspace != "" {
		system += "\n\nWorkspace context (candidates and repos):\n" + workspace
	}
	return system
}

func buildChatMessages(system string, history []AgentMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(history)+1)
	sys, _ := json.Marshal(AgentMessage{Role: types.RoleSystem, Content: system})
	out = append(out, sys)
	for _, m := range history {
		raw, _ := json.Marshal(m)
		out = append(out, raw)
	}
	return out
}

func (c *agentClient) complete(ctx context.Context, reqBody chatCompletionRequest) (*chatCompletionResponse, error) {
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Chat completion failed", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("chat completion failed with status %d", resp.StatusCode)
	}
	var out chatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

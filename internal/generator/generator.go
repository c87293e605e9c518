package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aptipro/backend/internal/model"
)

const optionsPerQuestion = 4

// Client wraps an OpenAI-compatible API client used as the question
// supply.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new generator client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable with a minimal completion.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("LLM ping: %w", err)
	}
	return nil
}

// questionPayload mirrors the JSON the model is asked to produce.
type questionPayload struct {
	Questions []struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correct_answer"`
		Explanation   string   `json:"explanation"`
	} `json:"questions"`
}

// Generate asks the model for count multiple-choice questions on the
// topic. Malformed questions are dropped; an empty result signals
// supply failure to the caller.
func (c *Client) Generate(ctx context.Context, topic string, count int) ([]model.Question, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildGenerationPrompt(topic, count)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	questions, err := parseQuestions(raw)
	if err != nil {
		return nil, fmt.Errorf("parse LLM response: %w", err)
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

// parseQuestions decodes and validates the model output. Questions with
// the wrong option count or a correct answer outside the options are
// dropped rather than failing the whole batch.
func parseQuestions(raw string) ([]model.Question, error) {
	var payload questionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w (raw: %s)", err, raw)
	}

	var questions []model.Question
	for _, q := range payload.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != optionsPerQuestion {
			slog.Warn("dropping malformed question", "text", q.Question, "options", len(q.Options))
			continue
		}
		if !containsOption(q.Options, q.CorrectAnswer) {
			slog.Warn("dropping question with stray correct answer", "text", q.Question)
			continue
		}
		questions = append(questions, model.Question{
			Text:          q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return questions, nil
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}

func buildGenerationPrompt(topic string, count int) string {
	var sb strings.Builder
	sb.WriteString("You are an aptitude test question writer.\n\n")
	sb.WriteString(fmt.Sprintf("Write %d multiple-choice questions on the topic %q.\n\n", count, topic))
	sb.WriteString("RULES:\n")
	sb.WriteString(fmt.Sprintf("- Each question has exactly %d answer options.\n", optionsPerQuestion))
	sb.WriteString("- correct_answer must be copied verbatim from the options.\n")
	sb.WriteString("- explanation briefly shows why the correct answer is right.\n")
	sb.WriteString("- Questions must be self-contained and solvable without external material.\n")
	sb.WriteString("\nRespond ONLY with a JSON object of this shape:\n")
	sb.WriteString(`{"questions": [{"question": "<text>", "options": ["<a>", "<b>", "<c>", "<d>"], "correct_answer": "<one of options>", "explanation": "<why>"}]}`)
	sb.WriteString("\n")
	return sb.String()
}

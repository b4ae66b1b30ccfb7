package openai

import (
	"errors"
	"regexp"
	"time"

	"github.com/openai/openai-go"

	"github.com/davidbz/creditmeter/internal/domain"
)

// snapshotSuffix matches the release date OpenAI appends to pinned model
// names, as in gpt-4o-2024-08-06.
var snapshotSuffix = regexp.MustCompile(`-\d{4}-\d{2}-\d{2}$`)

// BaseModel strips a snapshot date so pinned responses price against the
// model family.
func BaseModel(model string) string {
	return snapshotSuffix.ReplaceAllString(model, "")
}

// UsageFromCompletion converts the usage block of a chat completion into a
// usage event for userID. The completion id becomes the request id and the
// responding model is recorded without its snapshot date.
func UsageFromCompletion(userID string, resp *openai.ChatCompletion) (domain.UsageEvent, error) {
	if resp == nil {
		return domain.UsageEvent{}, errors.New("completion cannot be nil")
	}

	timestamp := time.Now().UTC()
	if resp.Created > 0 {
		timestamp = time.Unix(resp.Created, 0).UTC()
	}

	event := domain.UsageEvent{
		UserID:       userID,
		Vendor:       Vendor,
		Model:        BaseModel(resp.Model),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Timestamp:    timestamp,
		RequestID:    resp.ID,
	}
	if err := event.Validate(); err != nil {
		return domain.UsageEvent{}, err
	}

	return event, nil
}

package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/assemblage/backend/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

const namingEncoding = "o200k_base"

// NamingMember summarises one actor for the naming prompt.
type NamingMember struct {
	Name     string
	Category string
}

// NamingGroup is one community to be titled. Key is the identifier the
// model is asked to echo back, e.g. "Group 2".
type NamingGroup struct {
	Key     string
	Members []NamingMember
}

type groupTitle struct {
	Group string `json:"group" jsonschema:"description=Group identifier exactly as listed"`
	Title string `json:"title" jsonschema:"description=Thematic title of at most four words"`
}

type namingResponse struct {
	Titles []groupTitle `json:"titles"`
}

// TokenCounter returns the number of model tokens in s.
type TokenCounter func(s string) int

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// TiktokenCounter counts tokens with the o200k_base encoding. When the
// encoding cannot be loaded it falls back to a four-characters-per-token
// estimate.
func TiktokenCounter() TokenCounter {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(namingEncoding)
		if encErr != nil {
			logger.Warn("[AI] Falling back to estimated token counts", "err", encErr)
		}
	})
	if encErr != nil {
		return EstimateTokens
	}
	return func(s string) int {
		return len(enc.Encode(s, nil, nil))
	}
}

// EstimateTokens approximates a token count from the rune length of s.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

// NamingParams configures NameGroups. A TokenBudget of 0 or less leaves the
// prompt untrimmed; a nil Counter uses TiktokenCounter.
type NamingParams struct {
	TokenBudget int
	Counter     TokenCounter
	Options     []GenerateOption
}

// NameGroups asks client for a short title per group and returns the titles
// keyed by the identifier the model echoed. Callers must tolerate missing
// and unexpected keys.
func NameGroups(
	ctx context.Context,
	client CompletionClient,
	groups []NamingGroup,
	params NamingParams,
) (map[string]string, error) {
	if len(groups) == 0 {
		return map[string]string{}, nil
	}
	counter := params.Counter
	if counter == nil {
		counter = TiktokenCounter()
	}

	prompt := BuildNamingPrompt(groups, params.TokenBudget, counter)
	opts := append([]GenerateOption{WithSystemPrompts(NamingSystemPrompt)}, params.Options...)

	var res namingResponse
	if err := client.GenerateCompletionWithFormat(
		ctx,
		namingSchemaName,
		namingSchemaDescription,
		prompt,
		&res,
		opts...,
	); err != nil {
		return nil, fmt.Errorf("failed to name groups: %w", err)
	}

	titles := make(map[string]string, len(res.Titles))
	for _, t := range res.Titles {
		key := strings.TrimSpace(t.Group)
		title := strings.TrimSpace(t.Title)
		if key == "" || title == "" {
			continue
		}
		titles[key] = title
	}
	return titles, nil
}

// BuildNamingPrompt lists each group as "Key: name (category), ...". With a
// positive budget every group line is held to an equal share of it; members
// that do not fit are summarised as "(+N more)". The first member of a
// group is always listed.
func BuildNamingPrompt(groups []NamingGroup, budget int, count TokenCounter) string {
	share := 0
	if budget > 0 {
		share = max(budget/len(groups), 1)
	}

	var b strings.Builder
	b.WriteString(namingUserPrompt)
	for _, g := range groups {
		b.WriteString(groupLine(g, share, count))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func groupLine(g NamingGroup, share int, count TokenCounter) string {
	line := g.Key + ": "
	for i, m := range g.Members {
		entry := fmt.Sprintf("%s (%s)", m.Name, m.Category)
		if i > 0 {
			entry = ", " + entry
		}
		if i > 0 && share > 0 && count(line+entry) > share {
			return line + fmt.Sprintf(" (+%d more)", len(g.Members)-i)
		}
		line += entry
	}
	return line
}

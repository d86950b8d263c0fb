package assemblage

import (
	"fmt"

	"github.com/assemblage/backend/internal/util"
	"github.com/assemblage/backend/pkg/ai"
	oai "github.com/assemblage/backend/pkg/ai/ollama"
	gai "github.com/assemblage/backend/pkg/ai/openai"
)

// NewAIClientFromEnv builds the embedding and naming client selected by
// AI_ADAPTER. Anything other than "ollama" uses the OpenAI-compatible
// adapter.
func NewAIClientFromEnv() (ai.AssemblageAIClient, error) {
	maxConcurrent := int64(util.GetEnvNumeric("AI_MAX_CONCURRENT_REQUESTS", 15))
	perSecond := util.GetEnvFloat("AI_REQUESTS_PER_SECOND", 0)
	timeoutMin := int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 5))
	dimensions := int(util.GetEnvNumeric("AI_EMBED_DIM", 0))

	switch adapter := util.GetEnvString("AI_ADAPTER", "openai"); adapter {
	case "ollama":
		client, err := oai.NewAssemblageOllamaClient(oai.NewAssemblageOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			Dimensions:            dimensions,
			TimeoutMin:            timeoutMin,
			MaxConcurrentRequests: maxConcurrent,
			RequestsPerSecond:     perSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return client, nil
	case "openai", "":
		return gai.NewAssemblageOpenAIClient(gai.NewAssemblageOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			Dimensions:            dimensions,
			TimeoutMin:            timeoutMin,
			MaxConcurrentRequests: maxConcurrent,
			RequestsPerSecond:     perSecond,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}
}

// NewServiceFromEnv wires a Service to the configured AI client and the
// CLUSTER_* / NAMING_* parameters.
func NewServiceFromEnv() (*Service, ai.AssemblageAIClient, error) {
	client, err := NewAIClientFromEnv()
	if err != nil {
		return nil, nil, err
	}
	svc := NewService(NewServiceParams{
		Embedder: client,
		Namer:    client,
		Params:   ParamsFromEnv(),
	})
	return svc, client, nil
}

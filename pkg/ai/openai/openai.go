package openai

import (
	"github.com/assemblage/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultTimeoutMin = 5
	defaultBatchSize  = 512
)

// AssemblageOpenAIClient talks to OpenAI-compatible endpoints for actor
// embeddings and community naming. Embedding and chat may point at
// different base URLs and keys.
//
// An AssemblageOpenAIClient should be created using NewAssemblageOpenAIClient.
type AssemblageOpenAIClient struct {
	embeddingModel string
	chatModel      string
	dimensions     int
	batchSize      int
	timeoutMin     int
	chatURL        string

	limiter *ai.RequestLimiter
	ai.MetricsTracker

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewAssemblageOpenAIClientParams defines the configuration parameters for
// creating a new AssemblageOpenAIClient.
//
// Dimensions truncates or pads every returned vector; 0 keeps the
// provider's native size. BatchSize caps the inputs per embedding request.
// MaxConcurrentRequests and RequestsPerSecond bound the load put on the
// provider.
type NewAssemblageOpenAIClientParams struct {
	EmbeddingModel string
	ChatModel      string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	Dimensions            int
	BatchSize             int
	TimeoutMin            int
	MaxConcurrentRequests int64
	RequestsPerSecond     float64
}

// NewAssemblageOpenAIClient creates and returns a new client.
//
// Example:
//
//	client := openai.NewAssemblageOpenAIClient(openai.NewAssemblageOpenAIClientParams{
//		EmbeddingModel: "text-embedding-3-small",
//		ChatModel:      "gpt-4o-mini",
//		EmbeddingKey:   os.Getenv("AI_EMBED_KEY"),
//		ChatKey:        os.Getenv("AI_CHAT_KEY"),
//	})
func NewAssemblageOpenAIClient(
	params NewAssemblageOpenAIClientParams,
) *AssemblageOpenAIClient {
	if params.BatchSize <= 0 {
		params.BatchSize = defaultBatchSize
	}
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = defaultTimeoutMin
	}

	return &AssemblageOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		dimensions:     params.Dimensions,
		batchSize:      params.BatchSize,
		timeoutMin:     params.TimeoutMin,
		chatURL:        params.ChatURL,

		limiter: ai.NewRequestLimiter(params.MaxConcurrentRequests, params.RequestsPerSecond),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

var _ ai.AssemblageAIClient = (*AssemblageOpenAIClient)(nil)

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" && baseURL == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

package ollama

import (
	"net/http"
	"net/url"

	"github.com/assemblage/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

const defaultTimeoutMin = 5

// AssemblageOllamaClient implements ai.AssemblageAIClient against a
// locally hosted or proxied Ollama server.
type AssemblageOllamaClient struct {
	embeddingModel string
	chatModel      string
	dimensions     int
	timeoutMin     int
	countTokens    ai.TokenCounter

	limiter *ai.RequestLimiter
	ai.MetricsTracker

	Client *api.Client
}

// NewAssemblageOllamaClientParams contains configuration options for
// creating a new AssemblageOllamaClient.
type NewAssemblageOllamaClientParams struct {
	EmbeddingModel string
	ChatModel      string

	BaseURL string
	ApiKey  string

	Dimensions            int
	TimeoutMin            int
	MaxConcurrentRequests int64
	RequestsPerSecond     float64

	// TokenCounter sizes the context window for long prompts. Defaults to
	// ai.TiktokenCounter.
	TokenCounter ai.TokenCounter
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewAssemblageOllamaClient connects to the Ollama server at BaseURL, or the
// environment default when BaseURL is empty.
func NewAssemblageOllamaClient(
	params NewAssemblageOllamaClientParams,
) (*AssemblageOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = defaultTimeoutMin
	}
	if params.TokenCounter == nil {
		params.TokenCounter = ai.TiktokenCounter()
	}

	httpClient := http.DefaultClient
	if params.ApiKey != "" {
		httpClient = &http.Client{
			Transport: &headerTransport{
				headers: map[string]string{
					"Authorization": "Bearer " + params.ApiKey,
				},
				rt: http.DefaultTransport,
			},
		}
	}

	var cli *api.Client
	if u != nil {
		cli = api.NewClient(u, httpClient)
	} else {
		cli, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	return &AssemblageOllamaClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		dimensions:     params.Dimensions,
		timeoutMin:     params.TimeoutMin,
		countTokens:    params.TokenCounter,

		limiter: ai.NewRequestLimiter(params.MaxConcurrentRequests, params.RequestsPerSecond),

		Client: cli,
	}, nil
}

var _ ai.AssemblageAIClient = (*AssemblageOllamaClient)(nil)

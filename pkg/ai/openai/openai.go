package openai

import (
	"sync"

	"github.com/seekwell/atlas/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient talks to OpenAI-compatible APIs for the retrieval
// orchestrator. It manages separate clients for embeddings and
// chat/completion tasks so the two can point at different endpoints.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	embeddingModel string
	chatModel      string
	plannerModel   string

	embeddingURL string
	embeddingKey string
	chatURL      string
	chatKey      string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration for creating a
// GraphOpenAIClient.
//
// ChatModel is used for synthesis and map/reduce calls; PlannerModel is
// used for structured decomposition and claim extraction. EmbeddingURL
// and ChatURL may point at different OpenAI-compatible endpoints.
type NewGraphOpenAIClientParams struct {
	EmbeddingModel string
	ChatModel      string
	PlannerModel   string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string
}

// NewGraphOpenAIClient creates a GraphOpenAIClient configured with the
// provided parameters.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		EmbeddingModel: "text-embedding-3-small",
//		ChatModel:      "gpt-4o-mini",
//		PlannerModel:   "gpt-4o-mini",
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//	})
func NewGraphOpenAIClient(params NewGraphOpenAIClientParams) *GraphOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	return &GraphOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		plannerModel:   params.PlannerModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		metricsLock: sync.Mutex{},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
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

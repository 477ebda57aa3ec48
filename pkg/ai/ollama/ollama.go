package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/seekwell/atlas/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// GraphOllamaClient implements the ai.GraphAIClient interface using Ollama
// as the backend, for deployments where queries must stay on local models.
type GraphOllamaClient struct {
	embeddingModel string
	chatModel      string
	plannerModel   string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a
// new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	EmbeddingModel string
	ChatModel      string
	PlannerModel   string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
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

// NewGraphOllamaClient creates a new Ollama-based AI client. It connects
// to the Ollama server at the given BaseURL (or the default if empty) and
// limits in-flight requests with an internal semaphore.
func NewGraphOllamaClient(params NewGraphOllamaClientParams) (*GraphOllamaClient, error) {
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

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 5
	}

	return &GraphOllamaClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		plannerModel:   params.PlannerModel,

		reqLock: semaphore.NewWeighted(maxReq),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}

package logic

import (
	"os"
	"strings"

	"deepchat-backend/pkg"

	"github.com/sirupsen/logrus"
)

// credentialEnv maps a model-name vendor prefix to the environment variable
// holding its API key.
var credentialEnv = map[string]string{
	"deepseek": "DEEPSEEK_API_KEY",
	"llama":    "LLAMA_API_KEY",
	"qwen":     "QWEN_API_KEY",
	"mistral":  "MISTRAL_API_KEY",
	"gemma":    "GEMMA_API_KEY",
}

// ResolvedModel is a provider client paired with the concrete model name to
// request from it.
type ResolvedModel struct {
	Client *pkg.ChatClient
	Model  string
}

// ModelResolver maps a logical model key to a provider client. Unknown keys
// and missing credentials degrade to the default provider instead of failing
// the request.
type ModelResolver struct {
	defaultModel    ResolvedModel
	defaultKey      string
	externalPrefix  string
	externalBaseURL string
	lookupEnv       func(string) string
	logger          *logrus.Logger
}

type ResolverConfig struct {
	DefaultKey      string // sentinel, e.g. "google"
	DefaultBaseURL  string
	DefaultAPIKey   string
	DefaultModel    string
	ExternalPrefix  string // e.g. "openrouter:"
	ExternalBaseURL string
}

func NewModelResolver(cfg ResolverConfig, logger *logrus.Logger) *ModelResolver {
	return &ModelResolver{
		defaultModel: ResolvedModel{
			Client: pkg.NewChatClient(cfg.DefaultBaseURL, cfg.DefaultAPIKey),
			Model:  cfg.DefaultModel,
		},
		defaultKey:      cfg.DefaultKey,
		externalPrefix:  cfg.ExternalPrefix,
		externalBaseURL: cfg.ExternalBaseURL,
		lookupEnv:       os.Getenv,
		logger:          logger,
	}
}

// Resolve maps a selected model key to a provider. Resolution:
//   - empty key or the default sentinel -> default provider
//   - external-prefixed key -> strip prefix, look up the vendor credential;
//     missing credential falls back to the default provider with a warning
//   - anything else -> default provider
func (r *ModelResolver) Resolve(selected string) ResolvedModel {
	if selected == "" || selected == r.defaultKey {
		return r.defaultModel
	}

	if !strings.HasPrefix(selected, r.externalPrefix) {
		return r.defaultModel
	}

	modelName := strings.TrimPrefix(selected, r.externalPrefix)
	vendor := modelName
	if idx := strings.IndexByte(vendor, '/'); idx >= 0 {
		vendor = vendor[:idx]
	}

	envVar, known := credentialEnv[vendor]
	if !known {
		r.logger.WithField("model", selected).Warn("Unknown model vendor, using default provider")
		return r.defaultModel
	}
	apiKey := r.lookupEnv(envVar)
	if apiKey == "" {
		r.logger.WithFields(logrus.Fields{
			"model":      selected,
			"credential": envVar,
		}).Warn("Missing model credential, using default provider")
		return r.defaultModel
	}

	return ResolvedModel{
		Client: pkg.NewChatClient(r.externalBaseURL, apiKey),
		Model:  modelName,
	}
}

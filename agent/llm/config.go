package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	openrouterx "github.com/tanpawarit/agentic-services/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	OrchestratorModel       string  `envconfig:"ORCHESTRATOR_MODEL" split_words:"true"`
	SalesModel              string  `envconfig:"SALES_MODEL" split_words:"true"`
	SupportModel            string  `envconfig:"SUPPORT_MODEL" split_words:"true"`
	NavigatorModel          string  `envconfig:"NAVIGATOR_MODEL" split_words:"true"`
	AssistantModel          string  `envconfig:"ASSISTANT_MODEL" split_words:"true"`
	OrchestratorTemperature float32 `envconfig:"ORCHESTRATOR_TEMPERATURE" split_words:"true" default:"-1"`
	SalesTemperature        float32 `envconfig:"SALES_TEMPERATURE" split_words:"true" default:"-1"`
	SupportTemperature      float32 `envconfig:"SUPPORT_TEMPERATURE" split_words:"true" default:"-1"`
	NavigatorTemperature    float32 `envconfig:"NAVIGATOR_TEMPERATURE" split_words:"true" default:"-1"`
	AssistantTemperature    float32 `envconfig:"ASSISTANT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// ModelFor returns the model id used by agentType, falling back to Model.
func (c Config) ModelFor(agentType contractx.AgentType) string {
	model, _ := c.override(agentType)
	if v := strings.TrimSpace(model); v != "" {
		return v
	}
	return strings.TrimSpace(c.Model)
}

// Models lists the distinct model ids across every agent.
func (c Config) Models() []string {
	types := append([]contractx.AgentType{contractx.AgentTypeOrchestrator}, contractx.SpecialistTypes...)
	seen := map[string]struct{}{}
	out := make([]string, 0, len(types))
	for _, t := range types {
		m := c.ModelFor(t)
		if _, ok := seen[m]; ok || m == "" {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func (c Config) override(agentType contractx.AgentType) (string, float32) {
	switch agentType {
	case contractx.AgentTypeOrchestrator:
		return c.OrchestratorModel, c.OrchestratorTemperature
	case contractx.AgentTypeSales:
		return c.SalesModel, c.SalesTemperature
	case contractx.AgentTypeSupport:
		return c.SupportModel, c.SupportTemperature
	case contractx.AgentTypeNavigator:
		return c.NavigatorModel, c.NavigatorTemperature
	case contractx.AgentTypeAssistant:
		return c.AssistantModel, c.AssistantTemperature
	default:
		return "", -1
	}
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	temp := c.Temperature
	if _, t := c.override(agentType); t >= 0 {
		temp = t
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              c.ModelFor(agentType),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

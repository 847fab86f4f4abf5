package analysis

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/easeaico/truthlab/internal/prompt"
	"github.com/easeaico/truthlab/internal/types"
)

type chatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIAnalyzer talks to any OpenAI compatible vision model (OpenAI, OpenRouter, ...).
type OpenAIAnalyzer struct {
	completions chatCompleter
	model       string
}

// NewOpenAIAnalyzer creates the analyzer. baseURL may be empty.
func NewOpenAIAnalyzer(apiKey, baseURL, model string) (*OpenAIAnalyzer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, newError(KindCredentialMissing, "OPENAI_API_KEY is not set", nil)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return newOpenAIAnalyzer(&client.Chat.Completions, model), nil
}

func newOpenAIAnalyzer(completions chatCompleter, model string) *OpenAIAnalyzer {
	return &OpenAIAnalyzer{completions: completions, model: strings.TrimSpace(model)}
}

// Analyze sends the frame as a data URL image part and parses the JSON reply.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (types.PersonalityRecord, error) {
	if _, err := decodeImage(req.Image); err != nil {
		return types.PersonalityRecord{}, err
	}
	instruction, err := prompt.SystemInstruction(req.Language)
	if err != nil {
		return types.PersonalityRecord{}, newError(KindUnknown, "failed to build instruction", err)
	}

	imageURL := req.Image
	if !strings.HasPrefix(imageURL, "data:") {
		imageURL = "data:image/jpeg;base64," + imageURL
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
				openai.TextContentPart(prompt.UserText(req.Language)),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "personality_record",
					Schema: recordSchemaMap,
				},
			},
		},
	}

	resp, err := a.completions.New(ctx, params)
	if err != nil {
		return types.PersonalityRecord{}, classifyOpenAIError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return types.PersonalityRecord{}, newError(KindEmptyResponse, "no choices in analysis response", nil)
	}
	return ParseRecord(resp.Choices[0].Message.Content)
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := cleanRemoteMessage(apiErr.Message)
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return newError(KindCredentialInvalid, msg, err)
		}
		return newError(KindTransport, msg, err)
	}
	return newError(KindTransport, "openai request failed", err)
}

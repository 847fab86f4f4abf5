package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/easeaico/truthlab/internal/prompt"
	"github.com/easeaico/truthlab/internal/types"
	"github.com/easeaico/truthlab/internal/utils"
)

// contentGenerator is the slice of genai.Models the analyzer needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer calls the Gemini multimodal API directly.
type GeminiAnalyzer struct {
	models contentGenerator
	model  string
}

// NewGeminiAnalyzer validates apiKey and creates the genai client.
func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, newError(KindCredentialMissing, "GOOGLE_API_KEY is not set", nil)
	}
	if !strings.HasPrefix(apiKey, "AIza") {
		return nil, newError(KindCredentialInvalid, "invalid key format: Gemini API keys start with \"AIza\"", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, newError(KindTransport, "failed to create genai client", err)
	}
	return newGeminiAnalyzer(client.Models, model), nil
}

func newGeminiAnalyzer(models contentGenerator, model string) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		models: models,
		model:  strings.TrimSpace(model),
	}
}

// Analyze sends the frame with the language-specific instruction and parses the reply.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (types.PersonalityRecord, error) {
	image, err := decodeImage(req.Image)
	if err != nil {
		return types.PersonalityRecord{}, err
	}
	instruction, err := prompt.SystemInstruction(req.Language)
	if err != nil {
		return types.PersonalityRecord{}, newError(KindUnknown, "failed to build instruction", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, "image/jpeg"),
			genai.NewPartFromText(prompt.UserText(req.Language)),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    recordOutputSchema(),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return types.PersonalityRecord{}, classifyGeminiError(err)
	}
	return ParseRecord(utils.ResponseText(resp))
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := cleanRemoteMessage(apiErr.Message)
		if isCredentialRejection(apiErr.Code, apiErr.Status, msg) {
			return newError(KindCredentialInvalid, msg, err)
		}
		return newError(KindTransport, msg, err)
	}
	return newError(KindTransport, cleanRemoteMessage(err.Error()), err)
}

func isCredentialRejection(code int, status, msg string) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		lower := strings.ToLower(msg)
		return status == "INVALID_ARGUMENT" && strings.Contains(lower, "api key")
	}
	return false
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	if encoded == "" {
		return nil, newError(KindInvalidImage, "missing image payload", nil)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, newError(KindInvalidImage, "decode base64 image", err)
	}
	return data, nil
}

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/easeaico/truthlab/internal/types"
)

// maxProxyBody bounds how much of a proxy reply is read.
const maxProxyBody = 1 << 20

// ErrorBody is the JSON error shape of the analyze endpoint.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// ProxyAnalyzer POSTs {image, lang} to an analyze endpoint that performs the
// remote call server side and answers with the record JSON or an ErrorBody.
type ProxyAnalyzer struct {
	endpoint string
	client   *http.Client
}

// NewProxyAnalyzer returns a ProxyAnalyzer. A nil client means http.DefaultClient.
func NewProxyAnalyzer(endpoint string, client *http.Client) (*ProxyAnalyzer, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("analyze endpoint is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ProxyAnalyzer{endpoint: endpoint, client: client}, nil
}

func (p *ProxyAnalyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (types.PersonalityRecord, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return types.PersonalityRecord{}, newError(KindInvalidImage, "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return types.PersonalityRecord{}, newError(KindTransport, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return types.PersonalityRecord{}, newError(KindTransport, "analyze endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBody))
	if err != nil {
		return types.PersonalityRecord{}, newError(KindTransport, "failed to read analyze response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody ErrorBody
		_ = json.Unmarshal(body, &errBody)
		kind := ParseKind(errBody.Kind)
		if kind == KindUnknown {
			kind = KindTransport
		}
		msg := errBody.Error
		if msg == "" {
			msg = fmt.Sprintf("analyze endpoint returned %d", resp.StatusCode)
		}
		return types.PersonalityRecord{}, newError(kind, msg, nil)
	}

	return ParseRecord(string(body))
}

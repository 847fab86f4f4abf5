package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/truthlab/internal/analysis"
	"github.com/easeaico/truthlab/internal/certificate"
	"github.com/easeaico/truthlab/internal/config"
	"github.com/easeaico/truthlab/internal/types"
)

type handlers struct {
	analyzer RecordAnalyzer
	renderer *certificate.Renderer
	cfg      config.Config
	now      func() time.Time
}

type certificateRequest struct {
	Result *types.PersonalityResult `json:"result"`
	Name   string                   `json:"name"`
	Lang   string                   `json:"lang"`
}

// uiConfigResponse is the immutable configuration handed to the display layer.
type uiConfigResponse struct {
	Ads                 config.AdConfig `json:"ads"`
	CaptureThreshold    float64         `json:"captureThreshold"`
	InterstitialSeconds int             `json:"interstitialSeconds"`
	StorageKey          string          `json:"storageKey"`
	Owner               string          `json:"owner"`
}

func (h *handlers) analyze(c *gin.Context) {
	var req types.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, analysis.ErrorBody{Error: "invalid request body", Kind: analysis.KindInvalidImage.String()})
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		c.JSON(http.StatusBadRequest, analysis.ErrorBody{Error: "image is required", Kind: analysis.KindInvalidImage.String()})
		return
	}
	req.Language = types.ParseLanguage(string(req.Language))

	record, err := h.analyzer.AnalyzeRecord(c.Request.Context(), req)
	if err != nil {
		kind := analysis.KindOf(err)
		c.JSON(statusForKind(kind), analysis.ErrorBody{Error: analysis.UserMessage(err), Kind: kind.String()})
		return
	}
	c.JSON(http.StatusOK, record)
}

func statusForKind(kind analysis.Kind) int {
	switch kind {
	case analysis.KindCredentialMissing:
		return http.StatusInternalServerError
	case analysis.KindCredentialInvalid, analysis.KindInvalidImage:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *handlers) certificate(c *gin.Context) {
	var req certificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	lang := types.ParseLanguage(req.Lang)

	cert, err := h.renderer.Render(req.Result, req.Name, lang, h.now())
	if err != nil {
		if certificate.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": h.renderer.ValidationMessage(err, lang)})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render certificate"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.Filename))
	c.Data(http.StatusOK, "image/png", cert.PNG)
}

func (h *handlers) uiConfig(c *gin.Context) {
	c.JSON(http.StatusOK, uiConfigResponse{
		Ads:                 h.cfg.Ads,
		CaptureThreshold:    h.cfg.CaptureThreshold,
		InterstitialSeconds: int(h.renderer.Config().Interstitial / time.Second),
		StorageKey:          h.cfg.StorageKey,
		Owner:               h.renderer.Config().Owner,
	})
}

var errServerProxy = errors.New("the proxy provider cannot back the analyze endpoint it serves")

// CheckProvider rejects configurations where the server would call itself.
func CheckProvider(cfg config.Config) error {
	if cfg.Provider == config.ProviderProxy {
		return errServerProxy
	}
	return nil
}

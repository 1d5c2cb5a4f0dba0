package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AnTengye/contractreview/backend/middleware"
	"github.com/AnTengye/contractreview/backend/model"
	"github.com/AnTengye/contractreview/backend/pkg/logger"
	"github.com/AnTengye/contractreview/backend/service"
)

// Reviewer produces the analysis of one contract text. It never fails.
type Reviewer interface {
	Review(ctx context.Context, contractText string) (model.ContractAnalysis, model.AnalysisSource)
}

type ContractHandler struct {
	extractor *service.ExtractorService
	reviewer  Reviewer
	archive   service.DocumentArchive // nil when archiving is disabled
	store     *service.ContractStore
}

func NewContractHandler(extractor *service.ExtractorService, reviewer Reviewer, archive service.DocumentArchive, store *service.ContractStore) *ContractHandler {
	return &ContractHandler{
		extractor: extractor,
		reviewer:  reviewer,
		archive:   archive,
		store:     store,
	}
}

// AnalyzeTextRequest is the body of POST /api/contracts/analyze-text.
type AnalyzeTextRequest struct {
	Text     string `json:"text" binding:"required"`
	Filename string `json:"filename"`
	Depth    string `json:"depth"`
}

// AnalysisResponse is returned by both analyze routes and by Get.
type AnalysisResponse struct {
	*model.Contract
	RiskDistribution map[model.Severity]int `json:"risk_distribution"`
	Degraded         bool                   `json:"degraded"`
}

func newAnalysisResponse(contract *model.Contract) AnalysisResponse {
	resp := AnalysisResponse{
		Contract:         contract,
		RiskDistribution: map[model.Severity]int{},
		Degraded:         contract.Source.Degraded(),
	}
	if contract.Analysis != nil {
		resp.RiskDistribution = contract.Analysis.SeverityCounts()
	}
	return resp
}

// AnalyzeUpload handles a multipart contract upload: extract, archive, analyze.
func (h *ContractHandler) AnalyzeUpload(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if err := h.extractor.ValidateUpload(header.Filename, header.Size); err != nil {
		respondError(c, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	text, err := h.extractor.ExtractText(data, ext)
	if err != nil {
		respondError(c, err)
		return
	}

	contract := h.newContract(c, header.Filename, c.PostForm("depth"), text)
	if h.archive != nil {
		objectName := service.ObjectName(contract.Tenant, contract.ID, header.Filename)
		url, err := h.archive.Archive(ctx, objectName, data, header.Filename)
		if err != nil {
			// Archiving is best effort; analysis proceeds without it.
			logger.Warn(ctx, "failed to archive contract", "contract_id", contract.ID, "error", err)
		} else {
			contract.ObjectName = objectName
			contract.FileURL = url
		}
	}

	h.analyze(c, contract, text)
}

// AnalyzeText analyzes pasted contract text.
func (h *ContractHandler) AnalyzeText(c *gin.Context) {
	var req AnalyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	text, err := h.extractor.CleanText(req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = "pasted-text.txt"
	}

	h.analyze(c, h.newContract(c, filename, req.Depth, text), text)
}

func (h *ContractHandler) newContract(c *gin.Context, filename, depth, text string) *model.Contract {
	now := time.Now()
	return &model.Contract{
		ID:         uuid.New().String(),
		Filename:   filepath.Base(filename),
		Tenant:     middleware.GetTenant(c),
		Username:   middleware.GetUsername(c),
		Depth:      model.NormalizeDepth(depth),
		TextLength: len([]rune(text)),
		Preview:    service.Preview(text),
		Status:     model.StatusProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// analyze runs the review synchronously and responds with the stored record.
func (h *ContractHandler) analyze(c *gin.Context, contract *model.Contract, text string) {
	ctx := logger.WithContractID(c.Request.Context(), contract.ID)
	h.store.Save(contract)

	start := time.Now()
	analysis, source := h.reviewer.Review(ctx, text)
	if err := ctx.Err(); err != nil {
		// The client went away mid-request; a fallback built from a cancelled
		// call would be recorded as a real degraded result.
		h.store.Fail(contract.ID, "analysis cancelled: "+err.Error())
		logger.Warn(ctx, "contract analysis cancelled", "error", err)
		return
	}
	h.store.Complete(contract.ID, analysis, source)

	logger.Info(ctx, "contract analyzed",
		"filename", contract.Filename,
		"depth", contract.Depth,
		"text_length", contract.TextLength,
		"source", source,
		"score", analysis.ComplianceScore,
		"risks", len(analysis.Risks),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	stored := h.store.Get(contract.ID)
	if stored == nil {
		// Evicted between save and read; the local copy is still complete.
		contract.Analysis = &analysis
		contract.Source = source
		contract.Status = model.StatusCompleted
		stored = contract
	}
	c.JSON(http.StatusOK, newAnalysisResponse(stored))
}

// List returns all contracts for the current tenant
func (h *ContractHandler) List(c *gin.Context) {
	contracts := h.store.GetByTenant(middleware.GetTenant(c))

	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		item := gin.H{
			"id":         contract.ID,
			"filename":   contract.Filename,
			"status":     contract.Status,
			"depth":      contract.Depth,
			"source":     contract.Source,
			"created_at": contract.CreatedAt.Format(time.RFC3339),
			"updated_at": contract.UpdatedAt.Format(time.RFC3339),
		}
		if contract.Analysis != nil {
			item["compliance_score"] = contract.Analysis.ComplianceScore
			item["risk_count"] = len(contract.Analysis.Risks)
		}
		result[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns a single contract with its analysis
func (h *ContractHandler) Get(c *gin.Context) {
	contract := h.store.GetForTenant(c.Param("id"), middleware.GetTenant(c))
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(contract))
}

// Delete removes a contract and its archived original
func (h *ContractHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	contract := h.store.GetForTenant(id, middleware.GetTenant(c))
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	if h.archive != nil && contract.ObjectName != "" {
		if err := h.archive.Remove(c.Request.Context(), contract.ObjectName); err != nil {
			logger.Warn(c.Request.Context(), "failed to remove archived contract",
				"contract_id", id,
				"object", contract.ObjectName,
				"error", err,
			)
		}
	}

	h.store.Delete(id)

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Contract %s deleted", id)})
}

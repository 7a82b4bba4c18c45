package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// scopedConfig clones the base config for the class, subject and term of a request.
func (h *toolHandler) scopedConfig(request mcp.CallToolRequest) *contract.Config {
	return h.baseCfg.CloneWithScope(schema.Scope{
		ClassID:   strings.TrimSpace(request.GetString("class", "")),
		SubjectID: strings.TrimSpace(request.GetString("subject", "")),
		TermID:    strings.TrimSpace(request.GetString("term", "")),
	})
}

// applySort reads the optional sort column and click count of a request.
func applySort(cfg *contract.Config, request mcp.CallToolRequest) {
	if s := request.GetString("sort", ""); s != "" {
		cfg.SortKey = s
		cfg.SortClicks = contract.DefaultSortClicks
	}
	if c := request.GetInt("clicks", 0); c > 0 {
		cfg.SortClicks = c
	}
}

// jsonResult renders any result as indented JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetSubjectSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.scopedConfig(request)
	applySort(cfg, request)

	result, err := core.GetSubjectResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("subject summary failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandler) handleGetClassSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.scopedConfig(request)
	applySort(cfg, request)

	result, err := core.GetClassResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("class summary failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandler) handleGetDistribution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.scopedConfig(request)

	result, err := core.GetDistributionResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("distribution failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandler) handleGetTrend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.scopedConfig(request)
	cfg.StudentID = strings.TrimSpace(request.GetString("student", ""))
	cfg.Cohort = strings.TrimSpace(request.GetString("cohort", ""))

	grouping, err := resolveGrouping(request.GetString("group_by", ""), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid trend parameters: %v", err)), nil
	}
	cfg.TrendGrouping = grouping

	result, err := core.GetTrendResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("trend failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

// resolveGrouping validates an explicit grouping or derives one from the selectors given.
func resolveGrouping(raw string, cfg *contract.Config) (schema.TrendGrouping, error) {
	if raw != "" {
		g := schema.TrendGrouping(strings.ToLower(raw))
		if _, ok := schema.ValidTrendGroupings[g]; !ok {
			return "", fmt.Errorf("group_by must be student, class or cohort (received %q)", raw)
		}
		return g, nil
	}
	switch {
	case cfg.StudentID != "":
		return schema.TrendByStudent, nil
	case cfg.Cohort != "":
		return schema.TrendByCohort, nil
	case cfg.Scope.ClassID != "":
		return schema.TrendByClass, nil
	}
	return "", fmt.Errorf("one of student, class or cohort is required")
}

func (h *toolHandler) handleGetObjectives(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.scopedConfig(request)

	result, err := core.GetObjectiveResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("objective resolution failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

// saveGradesResult is the tool response of save_grades.
type saveGradesResult struct {
	schema.BulkResult
	Message string `json:"message"`
}

func (h *toolHandler) handleSaveGrades(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.scopedConfig(request)

	ops, err := core.ParseScoreWritesJSON(strings.NewReader(request.GetString("grades", "")), cfg.Scope)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid grades: %v", err)), nil
	}

	result := core.SaveGrades(ctx, cfg, h.mgr, ops)
	return jsonResult(saveGradesResult{BulkResult: result, Message: result.Message()}), nil
}

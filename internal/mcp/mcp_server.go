// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/raporkit/rapor/internal/contract"
)

// NewMCPServer initializes and configures the rapor MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Rapor Grade Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_subject_summary ---
	s.AddTool(mcp.NewTool("get_subject_summary",
		mcp.WithDescription("Pivot the grades of one subject in a class and term: one row per student with TP columns, UAS, averages and final grade."),
		mcp.WithString("class", mcp.Description("Class identifier."), mcp.Required()),
		mcp.WithString("subject", mcp.Description("Subject identifier."), mcp.Required()),
		mcp.WithString("term", mcp.Description("Term identifier."), mcp.Required()),
		mcp.WithString("sort", mcp.Description("Column to sort by (name, TP<n>, UAS, tp_average, average, final).")),
		mcp.WithNumber("clicks", mcp.Description("Header clicks on the sort column: 1 ascending, 2 descending, 3 none.")),
	), h.handleGetSubjectSummary)

	// --- 2. Tool: get_class_summary ---
	s.AddTool(mcp.NewTool("get_class_summary",
		mcp.WithDescription("Summarize every student of a class and term across all subjects, with ranks and letter bands."),
		mcp.WithString("class", mcp.Description("Class identifier."), mcp.Required()),
		mcp.WithString("term", mcp.Description("Term identifier."), mcp.Required()),
		mcp.WithString("sort", mcp.Description("Column to sort by (name, average, final or a subject id).")),
		mcp.WithNumber("clicks", mcp.Description("Header clicks on the sort column: 1 ascending, 2 descending, 3 none.")),
	), h.handleGetClassSummary)

	// --- 3. Tool: get_distribution ---
	s.AddTool(mcp.NewTool("get_distribution",
		mcp.WithDescription("Letter-grade distribution (A-E) of student averages in a class and term."),
		mcp.WithString("class", mcp.Description("Class identifier."), mcp.Required()),
		mcp.WithString("term", mcp.Description("Term identifier."), mcp.Required()),
	), h.handleGetDistribution)

	// --- 4. Tool: get_trend ---
	s.AddTool(mcp.NewTool("get_trend",
		mcp.WithDescription("Chronological average grades across terms for a student, a class or a cohort."),
		mcp.WithString("group_by", mcp.Description("Trend grouping. Defaults from the selector given."), mcp.Enum("student", "class", "cohort")),
		mcp.WithString("student", mcp.Description("Student identifier.")),
		mcp.WithString("class", mcp.Description("Class identifier.")),
		mcp.WithString("cohort", mcp.Description("Cohort (entry year) label.")),
		mcp.WithString("subject", mcp.Description("Restrict the trend to one subject.")),
	), h.handleGetTrend)

	// --- 5. Tool: get_objectives ---
	s.AddTool(mcp.NewTool("get_objectives",
		mcp.WithDescription("Resolve the learning objective columns of a subject scope and the thresholds in effect for them."),
		mcp.WithString("class", mcp.Description("Class identifier."), mcp.Required()),
		mcp.WithString("subject", mcp.Description("Subject identifier."), mcp.Required()),
		mcp.WithString("term", mcp.Description("Term identifier."), mcp.Required()),
	), h.handleGetObjectives)

	// --- 6. Tool: save_grades ---
	s.AddTool(mcp.NewTool("save_grades",
		mcp.WithDescription("Save a batch of grade cells. Each write is independent: the result counts successes and failures."),
		mcp.WithString("grades", mcp.Description("JSON array of {student_id, subject_id, class_id, term_id, kind, ordinal, value}."), mcp.Required()),
		mcp.WithString("class", mcp.Description("Default class for writes that omit it.")),
		mcp.WithString("subject", mcp.Description("Default subject for writes that omit it.")),
		mcp.WithString("term", mcp.Description("Default term for writes that omit it.")),
	), h.handleSaveGrades)

	return s
}

// StartMCPServer starts the rapor MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}

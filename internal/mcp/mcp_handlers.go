package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SebSchroeter/masterthesis/core"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/ingest"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultInlinePeriod labels a seat list given without a period.
const defaultInlinePeriod = "inline"

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// periodView is a period result with ranked and labelled power rows.
type periodView struct {
	schema.PeriodResult
	Power []schema.EnrichedPowerRow `json:"power,omitempty"`
}

type batchView struct {
	RunID   string       `json:"run_id"`
	Failed  int          `json:"failed"`
	Periods []periodView `json:"periods"`
}

func (h *toolHandler) handleAnalyzeSeats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period := request.GetString("period", defaultInlinePeriod)
	in, err := ingest.ParseSeatList(period, request.GetString("seats", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid seats: %v", err)), nil
	}
	if q, ok := request.GetArguments()["quota"]; ok {
		quota, err := asQuota(q)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		in.Quota = &quota
	}

	batch, err := core.AnalyzeInputs(core.WithSuppressHeader(ctx), h.baseCfg.Clone(), h.mgr, []schema.PeriodInput{in})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return resultJSON(batch)
}

func (h *toolHandler) handleAnalyzeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("path", "")
	if cfg.InputPath == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	cfg.InputFormat = schema.InputFormat(request.GetString("format", string(schema.AutoFormat)))
	cfg.Periods = nil
	for p := range strings.SplitSeq(request.GetString("period", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Periods = append(cfg.Periods, p)
		}
	}

	batch, _, err := core.GetAnalyzeResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return resultJSON(batch)
}

func (h *toolHandler) handleComparePeriods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("path", "")
	if cfg.InputPath == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	cfg.InputFormat = schema.AutoFormat
	cfg.BasePeriod = strings.TrimSpace(request.GetString("base_period", ""))
	cfg.TargetPeriod = strings.TrimSpace(request.GetString("target_period", ""))

	result, _, err := core.GetCompareResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// asQuota accepts the JSON number of a tool argument as a whole, non-negative seat count.
func asQuota(v any) (int64, error) {
	f, ok := v.(float64)
	if !ok || f < 0 || f != float64(int64(f)) {
		return 0, fmt.Errorf("invalid quota %v: expected a whole number of seats", v)
	}
	return int64(f), nil
}

func resultJSON(batch *schema.BatchResult) (*mcp.CallToolResult, error) {
	view := batchView{RunID: batch.RunID, Failed: batch.Failed(), Periods: make([]periodView, len(batch.Periods))}
	for i, p := range batch.Periods {
		view.Periods[i] = periodView{PeriodResult: p, Power: schema.EnrichPower(p.Power)}
	}
	jsonData, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

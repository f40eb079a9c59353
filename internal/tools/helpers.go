package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/pmkin-mcp/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// JSONResult marshals v to indented JSON and returns an mcp.CallToolResult.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("marshal result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult returns a CallToolResult flagged as an error.
func ErrorResult(msg string) *mcp.CallToolResult {
	res := mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
	res.IsError = true
	return res
}

// NotFoundResult reports that a lookup matched nothing. It is not an error.
func NotFoundResult(kind, key string) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("%s %q not found.", kind, key))
}

// LogAudit records a tool invocation. A nil logger is ignored; a nil err is
// logged as "ok".
func LogAudit(audit *safety.AuditLogger, toolName, operation string, params map[string]any, err error, start time.Time) {
	if audit == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error: " + err.Error()
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		Tool:      toolName,
		Operation: operation,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/sieve/models"
)

func main() {
	apiURL := os.Getenv("SIEVE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SIEVE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SIEVE_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"sieve",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractTool := mcp.NewTool("extract_sections",
		mcp.WithDescription("Extract a web page as labeled content sections. Starts with a plain HTTP fetch and escalates to browser rendering only when the page yields too little content."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to extract"),
		),
		mcp.WithString("max_tier",
			mcp.Description("Highest extraction tier: 'static' (HTTP only), 'light', 'full', or 'hard' (default)"),
			mcp.Enum(models.TierStatic, models.TierLight, models.TierFull, models.TierHard),
		),
		mcp.WithBoolean("markdown",
			mcp.Description("Return each section as markdown instead of plain text"),
		),
	)
	s.AddTool(extractTool, handleExtract(apiURL, apiKey))

	batchTool := mcp.NewTool("batch_extract",
		mcp.WithDescription("Extract several URLs in parallel and return the sections of each."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to extract"),
		),
		mcp.WithString("max_tier",
			mcp.Description("Highest extraction tier for every URL"),
			mcp.Enum(models.TierStatic, models.TierLight, models.TierFull, models.TierHard),
		),
		mcp.WithBoolean("markdown",
			mcp.Description("Return each section as markdown instead of plain text"),
		),
	)
	s.AddTool(batchTool, handleBatchExtract(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Sieve API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until its status is no longer
// "processing" or ctx is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string, every time.Duration) ([]byte, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			req.Header.Set("X-API-Key", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}

func handleExtract(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 320 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		markdown := request.GetBool("markdown", false)
		payload := models.ExtractRequest{
			URL:      url,
			Markdown: markdown,
			MaxTier:  request.GetString("max_tier", ""),
		}

		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/extract", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.ExtractResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(failureMessage(&resp)), nil
		}
		return mcp.NewToolResultText(formatResult(resp.Result, markdown)), nil
	}
}

func handleBatchExtract(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		markdown := request.GetBool("markdown", false)
		payload := models.BatchRequest{
			URLs: urls,
			Options: models.BatchOptions{
				Markdown: markdown,
				MaxTier:  request.GetString("max_tier", ""),
			},
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/batch/extract", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}

		var created models.BatchResponse
		if err := json.Unmarshal(respBody, &created); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}
		if created.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		resultBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/batch/"+created.ID, 2*time.Second)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var status models.BatchStatusResponse
		if err := json.Unmarshal(resultBody, &status); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch status: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", status.ID, status.Status, status.Completed, status.Total)
		for i, r := range status.Results {
			switch {
			case r == nil:
				fmt.Fprintf(&sb, "=== [%d] missing result ===\n\n", i+1)
			case !r.Success:
				fmt.Fprintf(&sb, "=== [%d] FAILED: %s ===\n\n", i+1, failureMessage(r))
			default:
				fmt.Fprintf(&sb, "=== [%d] %s ===\n%s\n", i+1, r.Result.URL, formatResult(r.Result, markdown))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func failureMessage(r *models.ExtractResponse) string {
	if r.Error != nil {
		return fmt.Sprintf("[%s] %s", r.Error.Code, r.Error.Message)
	}
	return "extraction failed"
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/shopsnap/models"
)

const defaultPollInterval = 2 * time.Second

// client talks to a running shopsnap server.
type client struct {
	http         *http.Client
	apiURL       string
	apiKey       string
	pollInterval time.Duration
}

func main() {
	apiURL := os.Getenv("SHOPSNAP_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}

	c := &client{
		http:         &http.Client{Timeout: 30 * time.Second},
		apiURL:       apiURL,
		apiKey:       os.Getenv("SHOPSNAP_API_KEY"),
		pollInterval: defaultPollInterval,
	}

	s := server.NewMCPServer(
		"shopsnap",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeProductTool := mcp.NewTool("scrape_product",
		mcp.WithDescription("Scrape an e-commerce product page. Returns the product name, model, summary, description and the file names of the cleaned main and gallery images."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the product page"),
		),
		mcp.WithString("product_model",
			mcp.Description("Product model to use for image file names instead of the extracted one"),
		),
	)
	s.AddTool(scrapeProductTool, c.handleScrapeProduct)

	getJobTool := mcp.NewTool("get_scrape_job",
		mcp.WithDescription("Get the status, progress and result of a previously submitted scrape job."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned when the scrape was submitted"),
		),
	)
	s.AddTool(getJobTool, c.handleGetJob)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// do sends a request to the shopsnap API and returns the response body.
// Non-2xx responses become errors carrying the API error message.
func (c *client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var apiErr models.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("[%s] %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return respBody, nil
}

func (c *client) getJob(ctx context.Context, id string) (*models.Job, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/scrape/"+id, nil)
	if err != nil {
		return nil, err
	}
	var job models.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	return &job, nil
}

// pollJob polls until the job leaves the processing state or ctx ends.
func (c *client) pollJob(ctx context.Context, id string) (*models.Job, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			job, err := c.getJob(ctx, id)
			if err != nil {
				return nil, err
			}
			if job.Status.Terminal() {
				return job, nil
			}
		}
	}
}

func (c *client) handleScrapeProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url is required"), nil
	}

	payload := models.ScrapeRequest{
		URL:          url,
		ProductModel: request.GetString("product_model", ""),
	}
	body, err := c.do(ctx, http.MethodPost, "/api/scrape", payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
	}

	var sub models.SubmitResponse
	if err := json.Unmarshal(body, &sub); err != nil || sub.JobID == "" {
		return mcp.NewToolResultError("scrape job creation failed"), nil
	}

	job, err := c.pollJob(ctx, sub.JobID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("polling job %s failed: %v", sub.JobID, err)), nil
	}
	return jobResult(job)
}

func (c *client) handleGetJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError("job_id is required"), nil
	}
	job, err := c.getJob(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !job.Status.Terminal() {
		progress := ""
		if job.Progress != nil {
			progress = *job.Progress
		}
		return mcp.NewToolResultText(fmt.Sprintf("Job %s: %s (%s)", job.ID, job.Status, progress)), nil
	}
	return jobResult(job)
}

// jobResult renders a finished job as the tool result.
func jobResult(job *models.Job) (*mcp.CallToolResult, error) {
	if job.Status == models.JobFailed {
		msg := "scrape failed"
		if job.Error != nil {
			msg = *job.Error
		}
		return mcp.NewToolResultError(fmt.Sprintf("Job %s failed: %s", job.ID, msg)), nil
	}

	out, err := json.MarshalIndent(job.Result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Job %s completed. Download: /api/scrape/%s/download\n\n%s", job.ID, job.ID, out)), nil
}

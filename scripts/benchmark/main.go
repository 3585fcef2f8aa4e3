package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/sieve/models"
)

// CLI flags
var (
	apiURL  = flag.String("api-url", "http://localhost:8080", "Sieve API base URL")
	apiKey  = flag.String("api-key", "", "API key for authenticated requests")
	runs    = flag.Int("runs", 3, "Number of runs per URL for averaging")
	maxTier = flag.String("max-tier", models.TierHard, "Highest tier the server may escalate to")
	output  = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering the kinds of pages each tier is meant for.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
	{"Complex", "https://github.com/go-rod/rod"},
}

type runResult struct {
	Run        int    `json:"run"`
	TotalMs    int64  `json:"total_ms"`
	StaticMs   int64  `json:"static_ms"`
	BrowserMs  int64  `json:"browser_ms"`
	FinalTier  string `json:"final_tier"`
	Tiers      int    `json:"tiers"`
	Sections   int    `json:"sections"`
	TextLength int    `json:"text_length"`
	Diagnostic int    `json:"diagnostics"`
	HasTitle   bool   `json:"has_title"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type urlAverages struct {
	TotalMs    float64 `json:"total_ms"`
	StaticMs   float64 `json:"static_ms"`
	BrowserMs  float64 `json:"browser_ms"`
	Sections   float64 `json:"sections"`
	TextLength float64 `json:"text_length"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	MaxTier    string      `json:"max_tier"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Sieve Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Max tier:  %s\n", *maxTier)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure Sieve is running (e.g. sieve serve)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
		MaxTier:    *maxTier,
	}

	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(t.URL, i)
			if rr.Success {
				fmt.Printf("OK  %dms  tier=%s  sections=%d\n", rr.TotalMs, rr.FinalTier, rr.Sections)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(models.ExtractRequest{URL: url, MaxTier: *maxTier})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/extract", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 320 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var er models.ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	if er.Error != nil {
		rr.Error = er.Error.Message
	}
	if !er.Success || er.Result == nil {
		return rr
	}

	rr.Success = true
	rr.TotalMs = er.Timing.TotalMs
	rr.StaticMs = er.Timing.StaticMs
	rr.BrowserMs = er.Timing.BrowserMs
	rr.Tiers = len(er.Trace)
	if len(er.Trace) > 0 {
		rr.FinalTier = er.Trace[len(er.Trace)-1].Tier
	}
	rr.Sections = len(er.Result.Sections)
	rr.TextLength = er.Result.TextLength()
	rr.Diagnostic = len(er.Result.Errors)
	rr.HasTitle = er.Result.Meta.Title != ""
	return rr
}

func computeAverages(runs []runResult) *urlAverages {
	var successCount int
	var avg urlAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.StaticMs += float64(r.StaticMs)
		avg.BrowserMs += float64(r.BrowserMs)
		avg.Sections += float64(r.Sections)
		avg.TextLength += float64(r.TextLength)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.StaticMs /= n
	avg.BrowserMs /= n
	avg.Sections /= n
	avg.TextLength /= n
	return &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tFinal Tier\tSections\tText Len\n")
	fmt.Fprintf(w, "───\t───────────\t──────────\t────────\t────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", truncateURL(r.URL, 40))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%s\t%.1f\t%s\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.TotalMs),
			dominantTier(r.Runs),
			r.Averages.Sections,
			formatInt(int(r.Averages.TextLength)),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

// dominantTier is the tier most successful runs ended on.
func dominantTier(runs []runResult) string {
	counts := map[string]int{}
	for _, r := range runs {
		if r.Success {
			counts[r.FinalTier]++
		}
	}
	best, bestCount := "-", 0
	for tier, count := range counts {
		if count > bestCount {
			best = tier
			bestCount = count
		}
	}
	return best
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Command bruteforcer hammers a running pathfinding server with random
// layouts and checks every solve against a breadth-first oracle.
//
// Each attempt creates a session, scatters seeded obstacles, solves over
// REST and verifies the outcome, path shape and path cost.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/gridpath/game/service"
)

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends a JSON request and decodes the response into result
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var body any
	if configID != "" {
		body = map[string]string{"config_id": configID}
	}

	var session service.SessionInfo
	if err := c.do(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return &session, nil
}

func (c *Client) RandomObstacles(ctx context.Context, req service.RandomObstaclesRequest) (*service.EditResult, error) {
	var result service.EditResult
	if err := c.do(ctx, "POST", fmt.Sprintf("/api/sessions/%s/obstacles/random", c.sessionID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Solve(ctx context.Context) (*service.SolveResult, error) {
	var result service.SolveResult
	if err := c.do(ctx, "POST", fmt.Sprintf("/api/sessions/%s/solve", c.sessionID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteSession(ctx context.Context) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/api/sessions/%s", c.sessionID), nil, nil)
}

// Summary counts attempt outcomes
type Summary struct {
	Attempts int
	Found    int
	NoPath   int
	Failures []string
}

// attempt runs one randomized layout and returns the oracle's complaints
func attempt(ctx context.Context, client *Client, configID string, seed int64, density float64) (*service.SolveResult, []string, error) {
	if _, err := client.CreateSession(ctx, configID); err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := client.DeleteSession(ctx); err != nil {
			log.Printf("Warning: failed to delete session %s: %v", client.sessionID, err)
		}
	}()

	if _, err := client.RandomObstacles(ctx, service.RandomObstaclesRequest{Density: density, Seed: &seed}); err != nil {
		return nil, nil, err
	}

	result, err := client.Solve(ctx)
	if err != nil {
		return nil, nil, err
	}
	return result, Check(result), nil
}

// runAttempts executes attempts sequentially, seeding each one from
// baseSeed so failing layouts can be replayed
func runAttempts(ctx context.Context, client *Client, configID string, attempts int, baseSeed int64, density float64, verbose bool) (*Summary, error) {
	summary := &Summary{}
	for i := 0; i < attempts; i++ {
		seed := baseSeed + int64(i)
		result, problems, err := attempt(ctx, client, configID, seed, density)
		if err != nil {
			return summary, fmt.Errorf("attempt %d (seed %d): %w", i+1, seed, err)
		}

		summary.Attempts++
		switch {
		case len(problems) > 0:
			for _, p := range problems {
				summary.Failures = append(summary.Failures, fmt.Sprintf("seed %d: %s", seed, p))
			}
			log.Printf("❌ Attempt %d (seed %d): %d problems", i+1, seed, len(problems))
		case result.Path != nil:
			summary.Found++
		default:
			summary.NoPath++
		}

		if verbose {
			log.Printf("Attempt %d (seed %d): outcome=%s expanded=%d path=%d cost=%g",
				i+1, seed, result.Outcome, result.Stats.Expanded, len(result.Path), result.PathCost)
		}
	}
	return summary, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "bruteforcer",
		Usage: "Check server solves against a breadth-first oracle",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Server URL", Sources: cli.EnvVars("API_URL")},
			&cli.StringFlag{Name: "config", Usage: "Layout configuration (default: server default)"},
			&cli.IntFlag{Name: "attempts", Value: 100, Usage: "Number of random layouts to check"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Seed of the first attempt"},
			&cli.StringFlag{Name: "density", Value: "0.3", Usage: "Obstacle density per attempt"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			density, err := strconv.ParseFloat(cmd.String("density"), 64)
			if err != nil {
				return fmt.Errorf("invalid density %q: %w", cmd.String("density"), err)
			}

			log.Printf("Connecting to server at %s", cmd.String("url"))
			client := NewClient(cmd.String("url"))

			summary, err := runAttempts(ctx, client, cmd.String("config"),
				int(cmd.Int("attempts")), int64(cmd.Int("seed")), density, cmd.Bool("v"))
			if err != nil {
				return err
			}

			log.Printf("Attempts=%d Found=%d NoPath=%d Failures=%d",
				summary.Attempts, summary.Found, summary.NoPath, len(summary.Failures))
			for _, f := range summary.Failures {
				log.Printf("  %s", f)
			}
			if len(summary.Failures) > 0 {
				return cli.Exit("❌ Oracle mismatches found", 1)
			}
			log.Printf("✅ All %d solves match the oracle", summary.Attempts)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

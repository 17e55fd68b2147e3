// Command chatcli is an interactive terminal client for the chat API. It
// speaks the streaming protocol and prints deltas as they arrive.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"zeto/internal/client"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type cli struct {
	baseURL   string
	token     string
	model     string
	projectID string
	fileIDs   []string
	http      *http.Client
	scanner   *bufio.Scanner
}

type chatRequest struct {
	Message   string   `json:"message"`
	Model     string   `json:"model,omitempty"`
	ProjectID string   `json:"projectId,omitempty"`
	FileIDs   []string `json:"fileIds,omitempty"`
	Stream    bool     `json:"stream"`
}

func main() {
	_ = godotenv.Load()

	c := &cli{
		baseURL: envOr("ZETO_URL", "http://localhost:8080"),
		token:   os.Getenv("ZETO_TOKEN"),
		http:    &http.Client{Timeout: 5 * time.Minute},
		scanner: bufio.NewScanner(os.Stdin),
	}

	fmt.Printf("%schatcli%s connected to %s\n", colorCyan, colorReset, c.baseURL)
	fmt.Println("Commands: /model <name>, /project <id>, /files <id,...>, /quit")

	for {
		fmt.Printf("%s> %s", colorGreen, colorReset)
		if !c.scanner.Scan() {
			return
		}
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !c.command(line) {
				return
			}
			continue
		}
		c.send(line)
	}
}

// command handles a slash command. Returns false to exit the loop.
func (c *cli) command(line string) bool {
	parts := strings.SplitN(line, " ", 2)
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch parts[0] {
	case "/quit", "/exit":
		return false
	case "/model":
		c.model = arg
		fmt.Printf("%smodel set to %q%s\n", colorYellow, arg, colorReset)
	case "/project":
		c.projectID = arg
		fmt.Printf("%sproject set to %q%s\n", colorYellow, arg, colorReset)
	case "/files":
		c.fileIDs = nil
		if arg != "" {
			for _, id := range strings.Split(arg, ",") {
				if id = strings.TrimSpace(id); id != "" {
					c.fileIDs = append(c.fileIDs, id)
				}
			}
		}
		fmt.Printf("%s%d file(s) attached%s\n", colorYellow, len(c.fileIDs), colorReset)
	default:
		fmt.Printf("%sunknown command %s%s\n", colorRed, parts[0], colorReset)
	}
	return true
}

func (c *cli) send(message string) {
	body, err := json.Marshal(chatRequest{
		Message:   message,
		Model:     c.model,
		ProjectID: c.projectID,
		FileIDs:   c.fileIDs,
		Stream:    true,
	})
	if err != nil {
		fmt.Printf("%serror: %v%s\n", colorRed, err, colorReset)
		return
	}

	// Ctrl+C cancels the in-flight stream instead of killing the REPL
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("%serror: %v%s\n", colorRed, err, colorReset)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Printf("%srequest failed: %v%s\n", colorRed, err, colorReset)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		fmt.Printf("%sHTTP %d: %s%s\n", colorRed, resp.StatusCode, strings.TrimSpace(string(raw)), colorReset)
		return
	}

	acc := client.NewAccumulator(func(delta string) {
		fmt.Print(delta)
	})
	if _, err := acc.Consume(ctx, resp.Body); err != nil {
		fmt.Printf("\n%sstream error: %v%s\n", colorRed, err, colorReset)
		return
	}
	fmt.Println()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

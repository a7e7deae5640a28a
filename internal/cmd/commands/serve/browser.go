package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/browser"
)

// launchBrowser waits for the server's health endpoint, then opens the
// user's default browser at url.
func (c *Command) launchBrowser(url string) {
	if err := waitForServer(url, 10*time.Second); err != nil {
		c.UI.Warn(fmt.Sprintf("Server not ready, skipping browser launch: %v", err))
		return
	}
	if err := browser.OpenURL(url); err != nil {
		c.UI.Warn(fmt.Sprintf("Could not open browser: %v", err))
	}
}

// waitForServer polls the health endpoint until the server is ready or the
// timeout elapses.
func waitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	healthURL := url + "/health"
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for server to start")

		case <-ticker.C:
			resp, err := http.Get(healthURL)
			if err == nil && resp.StatusCode == http.StatusOK {
				resp.Body.Close()
				return nil
			}
			if resp != nil {
				resp.Body.Close()
			}
		}
	}
}

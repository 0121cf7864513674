// Command healthcheck is the container health check for the faqbot server. It
// exits 0 when GET /livez on the local port answers 200.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultPort = "8000"

func main() {
	if err := checkLivez(livezURL(os.Getenv("PORT"))); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

func livezURL(port string) string {
	if port == "" {
		port = defaultPort
	}
	return "http://localhost:" + port + "/livez"
}

func checkLivez(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	return nil
}

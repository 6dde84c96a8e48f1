package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests and
// skips the whole suite when no hub is listening.
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.client = &http.Client{Timeout: 10 * time.Second}

	conn, err := net.DialTimeout("tcp", s.Config.HubAddr, time.Second)
	if err != nil {
		s.T().Skipf("no hub running at %s, skipping end-to-end suite", s.Config.HubAddr)
		return
	}
	_ = conn.Close()
}

// Banner prints a colorized header for one scenario step in the logs.
func (s *BaseHTTPSuite) Banner(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Call sends one JSON request, decodes the JSON response into out when out
// is non-nil, and returns the status code.
func (s *BaseHTTPSuite) Call(t *testing.T, method, path, token string, body, out any) int {
	var reader io.Reader
	var rawBody []byte
	if body != nil {
		var err error
		rawBody, err = json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(rawBody)
	}

	url := fmt.Sprintf("http://%s%s", s.Config.HubAddr, path)
	req, err := http.NewRequest(method, url, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))

	// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
	if s.Config.DebugJSON {
		fmt.Fprintln(&logBuilder, "\nREQUEST:")
		fmt.Fprintln(&logBuilder, string(rawBody))
		fmt.Fprintln(&logBuilder, "RESPONSE:")
		fmt.Fprintln(&logBuilder, string(raw))
	}
	t.Log(logBuilder.String())

	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/a3tai/pdf-passwd/internal/descriptions"
)

func TestServer_ServerInfo(t *testing.T) {
	server := newTestServer(t)
	server.config.Workers = 4
	server.config.KeyLength = 128

	info := server.serverInfo()
	if info.ServerName != "test-server" {
		t.Errorf("expected server name test-server, got %s", info.ServerName)
	}
	if info.Workers != 4 || info.KeyLength != 128 {
		t.Errorf("defaults not taken from config: %+v", info)
	}

	names := descriptions.GetAllToolNames()
	if len(info.AvailableTools) != len(names) {
		t.Fatalf("expected %d tools, got %d", len(names), len(info.AvailableTools))
	}
	for _, tool := range info.AvailableTools {
		if tool.Description == "" || strings.Contains(tool.Description, "\n") {
			t.Errorf("tool %s should carry a one-line description, got %q", tool.Name, tool.Description)
		}
		if tool.Description == "Tool description not available" {
			t.Errorf("tool %s has no description", tool.Name)
		}
	}
}

func TestServer_HandleServerInfo(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", extractTextFromResult(result))
	}

	text := extractTextFromResult(result)
	for _, want := range []string{
		"test-server v1.0.0 - Server Information",
		"Max File Size: 100 MB",
		"Default Key Length: 256 bits",
		"• pdf_change_passwords",
		"• pdf_server_info",
		"Parameters: input_dir (required), password (optional)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q: %s", want, text)
		}
	}
}

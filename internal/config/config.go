package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server    ServerConfig
	Agent     AgentConfig
	Knowledge KnowledgeConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	agent, err := loadAgentConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Agent:     agent,
		Knowledge: loadKnowledgeConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AgentConfig locates the remote question-answering agent. AgentID is the
// fixed constant naming which agent to query. A zero Timeout disables
// client-side deadlines: the call resolves or fails per the transport.
type AgentConfig struct {
	BaseURL string
	AgentID string
	Timeout time.Duration
}

func loadAgentConfig() (AgentConfig, error) {
	baseURL := strings.TrimSpace(os.Getenv("AGENT_BASE_URL"))
	if baseURL == "" {
		return AgentConfig{}, fmt.Errorf("AGENT_BASE_URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSeconds, err := parseOptionalIntEnv("AGENT_TIMEOUT_SECONDS")
	if err != nil {
		return AgentConfig{}, err
	}

	var timeout time.Duration
	if timeoutSeconds != nil {
		if *timeoutSeconds < 0 {
			return AgentConfig{}, fmt.Errorf("AGENT_TIMEOUT_SECONDS must not be negative")
		}
		timeout = time.Duration(*timeoutSeconds) * time.Second
	}

	return AgentConfig{
		BaseURL: baseURL,
		AgentID: getEnvOrDefault("AGENT_ID", "docuchat-kb"),
		Timeout: timeout,
	}, nil
}

// KnowledgeConfig identifies the knowledge base the upload/delete subsystem
// manages.
type KnowledgeConfig struct {
	BaseID string
}

func loadKnowledgeConfig() KnowledgeConfig {
	return KnowledgeConfig{
		BaseID: getEnvOrDefault("KNOWLEDGE_BASE_ID", "default"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

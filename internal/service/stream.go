package service

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
)

// Provider identifies an OpenAI-compatible API flavour
type Provider string

const (
	ProviderOpenAI  Provider = "openai"
	ProviderNVIDIA  Provider = "nvidia"
	ProviderGeneric Provider = "generic"
)

// DetectProvider guesses the provider from the API base URL
func DetectProvider(baseURL string) Provider {
	switch {
	case strings.Contains(baseURL, "api.openai.com"):
		return ProviderOpenAI
	case strings.Contains(baseURL, "integrate.api.nvidia.com"):
		return ProviderNVIDIA
	default:
		return ProviderGeneric
	}
}

// ParseStreamChunk converts one SSE data payload into a StreamChunk.
// reasoning_content is only sent by reasoning models (NVIDIA/DeepSeek).
func ParseStreamChunk(data []byte) (*StreamChunk, error) {
	var rawChunk struct {
		Choices []struct {
			Delta struct {
				Role             string  `json:"role,omitempty"`
				Content          string  `json:"content,omitempty"`
				ReasoningContent *string `json:"reasoning_content,omitempty"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason,omitempty"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(data, &rawChunk); err != nil {
		return nil, err
	}

	chunk := &StreamChunk{}
	if len(rawChunk.Choices) > 0 {
		choice := rawChunk.Choices[0]
		chunk.Role = choice.Delta.Role
		chunk.Content = choice.Delta.Content
		if choice.Delta.ReasoningContent != nil {
			chunk.ThinkingContent = *choice.Delta.ReasoningContent
		}
		chunk.Done = choice.FinishReason != nil && *choice.FinishReason != ""
	}

	return chunk, nil
}

// readSSE reads "data: {...}" lines until [DONE] or EOF and hands each chunk to callback
func readSSE(r io.Reader, callback func(chunk *StreamChunk) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read stream: %w", err)
		}
		eof := err == io.EOF

		line = bytes.TrimSpace(line)
		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))

			if bytes.Equal(data, []byte("[DONE]")) {
				return nil
			}

			chunk, perr := ParseStreamChunk(data)
			if perr != nil {
				log.Printf("Warning: Failed to parse stream chunk: %v", perr)
			} else if cerr := callback(chunk); cerr != nil {
				return fmt.Errorf("callback error: %w", cerr)
			}
		}

		if eof {
			return nil
		}
	}
}

package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"

	"geolert/errs"
)

// chatFallback is shown whenever the completion backend is unreachable. The
// chat assistant must never take the rest of the app down with it.
const chatFallback = "Sorry, the assistant is unavailable right now. Please try again in a few minutes."

const chatSystemPrompt = "You are the GeoLert assistant. You help citizens report disasters " +
	"(power outages, fires, floods, droughts) and answer questions about staying safe during them. " +
	"Keep answers short and practical."

// Chat handles POST /api/chat: it proxies the message to the completion
// backend and streams the answer back chunk by chunk.
func Chat(c *gin.Context, apiKey, model string) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		c.String(http.StatusBadRequest, "message is required")
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")

	if apiKey == "" {
		c.String(http.StatusOK, chatFallback)
		return
	}

	client := openai.NewClient(apiKey)
	stream, err := client.CreateChatCompletionStream(
		c.Request.Context(),
		openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: chatSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: req.Message,
				},
			},
			Stream: true,
		},
	)
	if err != nil {
		upstream := &errs.UpstreamError{Service: "chat completion", Err: err}
		log.Printf("Chat proxy: %v", upstream)
		c.String(http.StatusOK, chatFallback)
		return
	}
	defer stream.Close()

	flusher, _ := c.Writer.(http.Flusher)
	wrote := false
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Printf("Chat proxy: stream interrupted: %v", err)
			if !wrote {
				c.String(http.StatusOK, chatFallback)
			}
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}

		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return // client went away
		}
		wrote = true
		if flusher != nil {
			flusher.Flush()
		}
	}
}

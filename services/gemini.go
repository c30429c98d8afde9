package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"qisa/database"
)

// ErrEmptyResponse indica que o modelo não retornou nenhum candidato
var ErrEmptyResponse = errors.New("nenhuma resposta recebida do modelo")

type GeminiService struct {
	endpoint   string
	apiKey     string
	model      string
	imageModel string
	client     *http.Client
}

func NewGeminiService(endpoint, apiKey, model, imageModel string) *GeminiService {
	return &GeminiService{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		imageModel: imageModel,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Attachment bytes de um anexo já carregado, prontos para envio inline
type Attachment struct {
	MimeType string
	Data     []byte
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" ou "model"
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	Temperature        float32  `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// Chat envia o histórico + a nova mensagem (com anexos inline) e retorna a
// resposta em texto. Uma única tentativa: qualquer falha sobe para o handler.
func (s *GeminiService) Chat(ctx context.Context, systemPrompt string, history []database.Message, prompt string, attachments []Attachment) (string, error) {
	contents := historyToContents(history)

	parts := []geminiPart{{Text: prompt}}
	for _, att := range attachments {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: att.MimeType,
				Data:     base64.StdEncoding.EncodeToString(att.Data),
			},
		})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: parts})

	request := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: 4096,
			Temperature:     0.7,
		},
	}
	if systemPrompt != "" {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	resp, err := s.generate(ctx, s.model, request)
	if err != nil {
		return "", err
	}

	text, _ := extractParts(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateImage pede ao modelo de imagem uma nova imagem a partir do prompt.
// Retorna o texto de acompanhamento e a imagem como data URI base64.
func (s *GeminiService) GenerateImage(ctx context.Context, prompt string) (string, string, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	return s.imageRequest(ctx, request)
}

// EditImage envia uma imagem existente junto com a instrução de edição
func (s *GeminiService) EditImage(ctx context.Context, prompt string, image Attachment) (string, string, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{
				Role: "user",
				Parts: []geminiPart{
					{Text: prompt},
					{InlineData: &geminiInlineData{
						MimeType: image.MimeType,
						Data:     base64.StdEncoding.EncodeToString(image.Data),
					}},
				},
			},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	return s.imageRequest(ctx, request)
}

func (s *GeminiService) imageRequest(ctx context.Context, request geminiRequest) (string, string, error) {
	resp, err := s.generate(ctx, s.imageModel, request)
	if err != nil {
		return "", "", err
	}

	text, imageURI := extractParts(resp)
	if imageURI == "" {
		return "", "", ErrEmptyResponse
	}
	return text, imageURI, nil
}

// generate faz a chamada HTTP ao endpoint generateContent do modelo
func (s *GeminiService) generate(ctx context.Context, model string, request geminiRequest) (*geminiResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("erro ao montar requisição: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.endpoint, model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao chamar a API do Gemini: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler resposta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erro da API do Gemini: código %d, resposta: %s", resp.StatusCode, string(body))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("erro ao interpretar resposta: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	return &geminiResp, nil
}

// historyToContents converte as mensagens persistidas para o formato da API.
// O papel "assistant" vira "model" no vocabulário do Gemini.
func historyToContents(history []database.Message) []geminiContent {
	contents := make([]geminiContent, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == database.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}
	return contents
}

// extractParts separa o texto e a primeira imagem (como data URI) da resposta
func extractParts(resp *geminiResponse) (text string, imageURI string) {
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && text == "" {
			text = part.Text
		}
		if part.InlineData != nil && imageURI == "" {
			imageURI = fmt.Sprintf("data:%s;base64,%s", part.InlineData.MimeType, part.InlineData.Data)
		}
	}
	return text, imageURI
}

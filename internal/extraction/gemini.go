package extraction

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// CredentialSource resolves the API key to use for a call. Resolution
// happens per call so a key entered while the server is running takes
// effect without a restart.
type CredentialSource interface {
	Resolve() string
}

// Gemini implements the Extractor interface using Google Gemini
type Gemini struct {
	credentials CredentialSource
	modelName   string

	mu     sync.Mutex
	key    string
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(credentials CredentialSource, modelName string) *Gemini {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &Gemini{
		credentials: credentials,
		modelName:   modelName,
	}
}

// generativeModel returns a model bound to the given key, rebuilding the
// client when the key changed since the last call.
func (g *Gemini) generativeModel(key string) (*genai.GenerativeModel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil && g.key == key {
		return g.model, nil
	}
	if g.client != nil {
		g.client.Close()
		g.client = nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	g.key = key
	g.client = client
	g.model = client.GenerativeModel(g.modelName)
	return g.model, nil
}

// ExtractStatement analyzes a financial document and extracts transactions.
// It never retries; a failed file is re-submitted by the user.
func (g *Gemini) ExtractStatement(ctx context.Context, data []byte, contentType string) (*Result, error) {
	key := g.credentials.Resolve()
	if key == "" {
		// Fail before touching the network
		return nil, missingCredentialError()
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	finalData, _, err := prepareDocumentData(data, contentType)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "could not read the document", Err: err}
	}

	model, err := g.generativeModel(key)
	if err != nil {
		return nil, classifyCallError(err)
	}

	// prepareDocumentData always yields PNG
	parts := []genai.Part{
		genai.ImageData("png", finalData),
		genai.Text(statementScanPrompt),
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, classifyCallError(err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, malformedResponseError(fmt.Errorf("no response from gemini"))
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	result, err := parseStatementJSON(responseText.String())
	if err != nil {
		return nil, malformedResponseError(err)
	}

	return result, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		err := g.client.Close()
		g.client = nil
		return err
	}
	return nil
}

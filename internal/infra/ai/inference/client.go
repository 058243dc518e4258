// Package inference talks to the model-serving sidecar over gRPC.
package inference

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bryanwahyu/persona-analyzer/internal/domain/deception"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/textseq"
)

const (
	ClassifyMethod = "/inference.v1.Classifier/Classify"
	PredictMethod  = "/inference.v1.Personality/Predict"

	// DefaultMaxLength matches the classifier tokenizer's truncation length.
	DefaultMaxLength = 512
)

// ClassifyRequest is sent to the classifier.
type ClassifyRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
}

// ClassifyResponse carries either raw logits or probabilities.
type ClassifyResponse struct {
	Logits        []float64 `json:"logits,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// PredictRequest is a padded token index sequence.
type PredictRequest struct {
	Sequence []int `json:"sequence"`
}

// PredictResponse holds trait scores in [O, C, E, A, N] order.
type PredictResponse struct {
	Traits []float64 `json:"traits"`
}

// Client wraps the gRPC connection to the sidecar.
type Client struct {
	conn      grpc.ClientConnInterface
	closer    func() error
	maxLength int
}

// Dial creates a client; the connection is established lazily on first call.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, closer: conn.Close, maxLength: DefaultMaxLength}, nil
}

// NewClientWithConn creates a Client over an existing connection.
// Used for testing without a real gRPC server.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn, maxLength: DefaultMaxLength}
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// Classify implements deception.Classifier.
func (c *Client) Classify(ctx context.Context, text string) (deception.Distribution, error) {
	var resp ClassifyResponse
	req := &ClassifyRequest{Text: text, MaxLength: c.maxLength}
	if err := c.conn.Invoke(ctx, ClassifyMethod, req, &resp, grpc.ForceCodec(jsonCodec{})); err != nil {
		return deception.Distribution{}, fmt.Errorf("classify rpc: %w", err)
	}
	if len(resp.Probabilities) > 0 {
		return deception.FromProbabilities(resp.Probabilities)
	}
	return deception.Softmax(resp.Logits)
}

// PersonalityModel runs trait prediction on the sidecar using a local vocabulary.
type PersonalityModel struct {
	client *Client
	vocab  *textseq.Vocabulary
	maxLen int
}

func NewPersonalityModel(c *Client, v *textseq.Vocabulary, maxLen int) *PersonalityModel {
	if maxLen <= 0 {
		maxLen = textseq.DefaultMaxLen
	}
	return &PersonalityModel{client: c, vocab: v, maxLen: maxLen}
}

// Predict implements personality.Model.
func (m *PersonalityModel) Predict(ctx context.Context, text string) ([5]float64, error) {
	var out [5]float64
	var resp PredictResponse
	req := &PredictRequest{Sequence: m.vocab.Encode(text, m.maxLen)}
	if err := m.client.conn.Invoke(ctx, PredictMethod, req, &resp, grpc.ForceCodec(jsonCodec{})); err != nil {
		return out, fmt.Errorf("predict rpc: %w", err)
	}
	if len(resp.Traits) != len(out) {
		return out, fmt.Errorf("predict rpc: got %d traits, want %d", len(resp.Traits), len(out))
	}
	copy(out[:], resp.Traits)
	return out, nil
}

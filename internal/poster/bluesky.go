package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultPDS = "https://bsky.social"

// Bluesky publishes posts through the AT Protocol XRPC API. Authenticate with
// an App Password, not the account password.
type Bluesky struct {
	pds        string
	identifier string
	password   string
	httpClient *http.Client

	// populated after login
	accessJwt string
	did       string
	handle    string
}

func NewBluesky(pds, identifier, password string) *Bluesky {
	if pds == "" {
		pds = defaultPDS
	}
	return &Bluesky{
		pds:        pds,
		identifier: identifier,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *Bluesky) Name() string { return "bluesky" }

// Post logs in, uploads media if present, and creates an app.bsky.feed.post
// record.
func (b *Bluesky) Post(ctx context.Context, text, mediaPath string) (*Result, error) {
	if b.accessJwt == "" {
		if err := b.login(ctx); err != nil {
			return nil, err
		}
	}

	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if mediaPath != "" {
		blob, err := b.uploadBlob(ctx, mediaPath)
		if err != nil {
			return nil, err
		}
		record["embed"] = map[string]any{
			"$type": "app.bsky.embed.images",
			"images": []map[string]any{
				{"alt": "", "image": blob},
			},
		}
	}

	var resp createRecordResponse
	err := b.xrpc(ctx, "/xrpc/com.atproto.repo.createRecord", createRecordRequest{
		Repo:       b.did,
		Collection: "app.bsky.feed.post",
		Record:     record,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	return &Result{
		PostID: resp.URI,
		URL:    b.webURL(resp.URI),
	}, nil
}

func (b *Bluesky) login(ctx context.Context) error {
	var resp createSessionResponse
	err := b.xrpc(ctx, "/xrpc/com.atproto.server.createSession", map[string]string{
		"identifier": b.identifier,
		"password":   b.password,
	}, &resp)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	b.accessJwt = resp.AccessJwt
	b.did = resp.DID
	b.handle = resp.Handle
	return nil
}

func (b *Bluesky) uploadBlob(ctx context.Context, path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading media: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.pds+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+b.accessJwt)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result uploadBlobResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return result.Blob, nil
}

func (b *Bluesky) xrpc(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.pds+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+b.accessJwt)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// webURL turns an at:// record URI into a bsky.app link.
func (b *Bluesky) webURL(uri string) string {
	// at://did:plc:xyz/app.bsky.feed.post/rkey
	parts := strings.Split(uri, "/")
	if len(parts) == 0 {
		return uri
	}
	rkey := parts[len(parts)-1]
	actor := b.handle
	if actor == "" {
		actor = b.did
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", actor, rkey)
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type createRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type uploadBlobResponse struct {
	Blob json.RawMessage `json:"blob"`
}

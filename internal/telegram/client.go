package telegram

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/ShelfStat/internal/config"
	"github.com/IshaanNene/ShelfStat/internal/types"
)

// Client talks to the Telegram Bot API over plain HTTPS.
type Client struct {
	http        *http.Client
	apiURL      string
	token       string
	maxFileSize int64
	logger      *slog.Logger
}

// NewClient creates a Bot API client.
func NewClient(cfg config.BotConfig, logger *slog.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decoded in decompressReader, including brotli
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		token:       cfg.Token,
		maxFileSize: cfg.MaxFileSize,
		logger:      logger.With("component", "telegram_client"),
	}
}

// SendMessage posts text to a chat. parseMode may be "HTML" or empty.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	req := sendMessageRequest{ChatID: chatID, Text: text, ParseMode: parseMode}
	if err := c.call(ctx, "sendMessage", req, nil); err != nil {
		return err
	}
	c.logger.Debug("message sent", "chat_id", chatID, "length", len(text))
	return nil
}

// GetFile resolves a file id into a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var f File
	if err := c.call(ctx, "getFile", map[string]string{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	if f.FilePath == "" {
		return nil, &types.DeliveryError{Method: "getFile", Err: errors.New("file_path missing in response")}
	}
	return &f, nil
}

// Download fetches the file behind fileID into dst and returns the number of
// bytes written. dst is removed if the download fails.
func (c *Client) Download(ctx context.Context, fileID, dst string) (int64, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return 0, err
	}
	if c.maxFileSize > 0 && f.FileSize > c.maxFileSize {
		return 0, &types.DeliveryError{Method: "download", Err: fmt.Errorf("file is %d bytes, limit is %d", f.FileSize, c.maxFileSize)}
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.apiURL, c.token, f.FilePath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, &types.DeliveryError{Method: "download", Err: err}
	}
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, &types.DeliveryError{Method: "download", Err: redact(err, c.token)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, &types.DeliveryError{
			Method:     "download",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	reader, err := decompressReader(resp, resp.Body)
	if err != nil {
		return 0, &types.DeliveryError{Method: "download", Err: err}
	}
	if c.maxFileSize > 0 {
		reader = io.LimitReader(reader, c.maxFileSize+1)
	}

	// dst may hold a staged upload; it is only replaced once the new copy is complete.
	part := dst + ".part"
	out, err := os.Create(part)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", part, err)
	}
	n, err := io.Copy(out, reader)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && c.maxFileSize > 0 && n > c.maxFileSize {
		err = fmt.Errorf("file exceeds %d bytes", c.maxFileSize)
	}
	if err == nil {
		err = os.Rename(part, dst)
	}
	if err != nil {
		os.Remove(part)
		return 0, &types.DeliveryError{Method: "download", Err: err}
	}

	c.logger.Debug("file downloaded", "file_id", fileID, "bytes", n, "encoding", resp.Header.Get("Content-Encoding"))
	return n, nil
}

// call performs a JSON Bot API method and decodes its result into out.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &types.DeliveryError{Method: method, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &types.DeliveryError{Method: method, Err: redact(err, c.token)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &types.DeliveryError{Method: method, Err: redact(err, c.token)}
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&apiResp)

	if resp.StatusCode != http.StatusOK || !apiResp.OK {
		return &types.DeliveryError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Err:        describeStatus(resp.StatusCode, apiResp.Description),
		}
	}
	if decodeErr != nil {
		return &types.DeliveryError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if out != nil {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return &types.DeliveryError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return nil
}

func describeStatus(status int, description string) error {
	switch status {
	case http.StatusUnauthorized:
		return errors.New("invalid bot token")
	case http.StatusBadRequest:
		return fmt.Errorf("bad request: %s", description)
	case http.StatusForbidden:
		return errors.New("bot was blocked by the user or chat")
	case http.StatusNotFound:
		return errors.New("bot not found, check the token")
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited: %s", description)
	default:
		if description == "" {
			description = http.StatusText(status)
		}
		return fmt.Errorf("HTTP %d: %s", status, description)
	}
}

// decompressReader wraps reader according to the response Content-Encoding.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// redact strips the bot token from transport errors, which embed the URL.
func redact(err error, token string) error {
	var urlErr *url.Error
	if token == "" || !errors.As(err, &urlErr) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}

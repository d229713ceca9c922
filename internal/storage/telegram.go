package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/halcyonlab/imgstash/internal/config"
)

// Telegram stores uploads as messages in a bot-accessible channel. The
// returned reference is the bot API file_id wrapped in a /file/ path; the
// file itself is fetched on demand through getFile.
type Telegram struct {
	token      string
	chatID     string
	apiBase    string
	httpClient *http.Client
	configured bool
}

// NewTelegram creates the bot-channel adapter.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		token:      cfg.BotToken,
		chatID:     cfg.ChatID,
		apiBase:    strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		configured: cfg.Configured(),
	}
}

// Name returns the backend tag.
func (t *Telegram) Name() string { return BackendTelegram }

// FormField returns the multipart field name the Telegram route expects.
func (t *Telegram) FormField() string { return "file" }

// Configured reports whether bot credentials are present.
func (t *Telegram) Configured() bool { return t.configured }

// apiResponse is the bot API envelope. Result is kept raw because its shape
// depends on the method called.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// tgMessage is the subset of a bot API message we care about. Each send
// method reports the stored file under a different key; photos come in
// multiple sizes.
type tgMessage struct {
	MessageID int64 `json:"message_id"`
	Photo     []struct {
		FileID   string `json:"file_id"`
		FileSize int64  `json:"file_size"`
	} `json:"photo"`
	Video    *tgFile `json:"video"`
	Audio    *tgFile `json:"audio"`
	Document *tgFile `json:"document"`
}

type tgFile struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

// sendMethod picks the bot API method and its file field for a content type.
// Anything unrecognized goes through sendDocument, which accepts arbitrary
// files.
func sendMethod(contentType string) (method, field string) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "sendPhoto", "photo"
	case strings.HasPrefix(contentType, "video/"):
		return "sendVideo", "video"
	case strings.HasPrefix(contentType, "audio/"):
		return "sendAudio", "audio"
	default:
		return "sendDocument", "document"
	}
}

// Put posts the file to the channel and returns a reference built from the
// resulting file_id. A 2xx response without a file_id is reported as
// ErrNoFileID: the message may exist remotely but cannot be referenced.
func (t *Telegram) Put(ctx context.Context, up Upload) (*Object, error) {
	method, field := sendMethod(up.ContentType)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("chat_id", t.chatID); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	fw, err := mw.CreateFormFile(field, up.FileName)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if _, err := fw.Write(up.Data); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL(method), &body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	env, err := decodeAPIResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}

	var msg tgMessage
	if err := json.Unmarshal(env.Result, &msg); err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", method, err)
	}

	fileID, fileName := msg.storedFile()
	if fileID == "" {
		return nil, ErrNoFileID
	}
	if fileName == "" {
		fileName = up.FileName
	}

	return &Object{
		URL:       "/file/" + fileID,
		FileID:    fileID,
		MessageID: msg.MessageID,
		ChatID:    t.chatID,
		FileName:  fileName,
	}, nil
}

// storedFile returns the file_id (and name when reported) of whichever
// attachment the message carries. For photos the largest size wins, since
// that is the variant worth referencing.
func (m *tgMessage) storedFile() (fileID, fileName string) {
	if len(m.Photo) > 0 {
		best := m.Photo[0]
		for _, p := range m.Photo[1:] {
			if p.FileSize > best.FileSize {
				best = p
			}
		}
		return best.FileID, ""
	}
	for _, f := range []*tgFile{m.Video, m.Audio, m.Document} {
		if f != nil && f.FileID != "" {
			return f.FileID, f.FileName
		}
	}
	return "", ""
}

// Retract deletes the channel message holding the file.
func (t *Telegram) Retract(ctx context.Context, obj *Object) error {
	if obj.MessageID == 0 {
		return nil
	}

	form := strings.NewReader(
		"chat_id=" + t.chatID + "&message_id=" + strconv.FormatInt(obj.MessageID, 10),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("deleteMessage"), form)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling deleteMessage: %w", err)
	}
	defer resp.Body.Close()

	if _, err := decodeAPIResponse(resp); err != nil {
		return fmt.Errorf("calling deleteMessage: %w", err)
	}
	return nil
}

// ResolveURL exchanges the file_id for a temporary download URL via getFile.
// Bot file URLs expire after about an hour, so this is resolved fresh each
// time rather than stored.
func (t *Telegram) ResolveURL(ctx context.Context, obj *Object) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.methodURL("getFile")+"?file_id="+obj.FileID, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling getFile: %w", err)
	}
	defer resp.Body.Close()

	env, err := decodeAPIResponse(resp)
	if err != nil {
		return "", fmt.Errorf("calling getFile: %w", err)
	}

	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(env.Result, &file); err != nil {
		return "", fmt.Errorf("decoding getFile result: %w", err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("getFile returned no file_path for %s", obj.FileID)
	}

	return t.apiBase + "/file/bot" + t.token + "/" + file.FilePath, nil
}

// methodURL builds the bot API URL for a method.
func (t *Telegram) methodURL(method string) string {
	return t.apiBase + "/bot" + t.token + "/" + method
}

// decodeAPIResponse reads a bot API envelope, turning HTTP and ok=false
// failures into errors. Bodies are capped; the envelope is small.
func decodeAPIResponse(resp *http.Response) (*apiResponse, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var env apiResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
	}
	if !env.OK {
		desc := env.Description
		if desc == "" {
			desc = "unknown error"
		}
		return nil, fmt.Errorf("bot api error (status %d): %s", resp.StatusCode, desc)
	}
	return &env, nil
}

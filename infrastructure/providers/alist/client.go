// Package alist implements services.ProviderClient against an Alist
// instance's JSON REST API, authenticated with a bearer token rather than
// a cookie jar.
package alist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"drivesync/domain/models"
	"drivesync/domain/services"
)

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(rawCredentials, baseURL string, timeoutSeconds int) (services.ProviderClient, error) {
	token := strings.TrimSpace(rawCredentials)
	if token == "" {
		return nil, &services.AuthError{DriveType: string(models.DriveTypeAlist), Reason: "missing bearer token"}
	}

	return &Client{
		http:    &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}, nil
}

func (c *Client) DriveType() models.DriveType { return models.DriveTypeAlist }

type alistEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, path string, body any, out *alistEnvelope) error {
	var lastErr error

	for attempt := 0; attempt <= 3; attempt++ {
		var reqBody io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return err
			}
			reqBody = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", c.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 300 * time.Millisecond)
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return &services.AuthError{DriveType: string(models.DriveTypeAlist), Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
		}
		if resp.StatusCode >= 500 || resp.StatusCode == 429 {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			time.Sleep(time.Duration(attempt+1) * 300 * time.Millisecond)
			continue
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return &services.InternalError{Reason: "unparseable alist response for " + path, Cause: err}
		}
		if out.Code != 0 && out.Code != 200 {
			if out.Code == 401 {
				return &services.AuthError{DriveType: string(models.DriveTypeAlist), Reason: out.Message}
			}
			return &services.ProviderBusinessError{DriveType: string(models.DriveTypeAlist), Op: path, Code: fmt.Sprintf("%d", out.Code), Message: out.Message}
		}
		return nil
	}

	return &services.ProviderTransientError{DriveType: string(models.DriveTypeAlist), Op: path, Cause: lastErr}
}

// GetUserInfo has no real analogue on a self-hosted Alist instance (no
// quota/VIP concept); me is probed only to confirm the token is live.
func (c *Client) GetUserInfo(ctx context.Context) (models.UserInfo, error) {
	var env alistEnvelope
	if err := c.call(ctx, http.MethodGet, "/api/me", nil, &env); err != nil {
		return models.UserInfo{}, err
	}

	var data struct {
		Username string `json:"username"`
		BasePath string `json:"base_path"`
	}
	_ = json.Unmarshal(env.Data, &data)

	return models.UserInfo{
		RemoteUserID: data.Username,
		DisplayName:  data.Username,
	}, nil
}

type alistItem struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	IsDir    bool   `json:"is_dir"`
	Modified string `json:"modified"`
	Created  string `json:"created"`
	Sign     string `json:"sign"`
}

func (c *Client) listOnePath(ctx context.Context, path string) ([]alistItem, error) {
	var env alistEnvelope
	body := map[string]any{"path": path, "page": 1, "per_page": 0, "refresh": false}
	if err := c.call(ctx, http.MethodPost, "/api/fs/list", body, &env); err != nil {
		return nil, err
	}

	var data struct {
		Content []alistItem `json:"content"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &services.InternalError{Reason: "unparseable alist listing", Cause: err}
	}
	return data.Content, nil
}

func toBaseFileInfo(it alistItem, parentPath string) models.BaseFileInfo {
	fullPath := strings.TrimSuffix(parentPath, "/") + "/" + it.Name

	info := models.BaseFileInfo{
		FileID:    fullPath,
		FileName:  it.Name,
		FilePath:  fullPath,
		IsFolder:  it.IsDir,
		FileSize:  it.Size,
		ParentID:  parentPath,
		CreatedAt: it.Created,
		UpdatedAt: it.Modified,
	}
	if it.Sign != "" {
		info = info.WithExt("sign", it.Sign)
	}
	return info
}

// ListDisk walks the virtual filesystem from p.Path. Alist has no stable
// numeric file ids; full paths double as ids, matching how Alist's own
// download/sign links address items.
func (c *Client) ListDisk(ctx context.Context, p services.ListDiskParams) ([]models.BaseFileInfo, error) {
	var all []models.BaseFileInfo
	queue := []string{p.Path}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if p.Speed == models.RecursionSpeedSlow {
			time.Sleep(3 * time.Second)
		}

		children, err := c.listOnePath(ctx, cur)
		if err != nil {
			return nil, err
		}

		for _, it := range children {
			info := toBaseFileInfo(it, cur)
			if p.Filter != nil && p.Filter.Excluded(info) {
				continue
			}
			all = append(all, info)
			if info.IsFolder && p.Recursive {
				queue = append(queue, info.FilePath)
			}
		}
	}

	return all, nil
}

// ListShare treats a shared path on the same Alist instance the same as
// ListDisk: Alist has no distinct "share event" concept like Baidu/Quark,
// only path-scoped permissions, so the source path is walked directly.
func (c *Client) ListShare(ctx context.Context, p services.ListShareParams) ([]models.BaseFileInfo, error) {
	if p.Path == "" || p.Path == "/" {
		return nil, &services.ValidationError{Field: "share.path", Reason: "share path must be non-empty and non-root"}
	}

	return c.ListDisk(ctx, services.ListDiskParams{
		Path:      p.Path,
		Recursive: p.Recursive,
		Speed:     p.Speed,
		Filter:    p.Filter,
	})
}

func (c *Client) Mkdir(ctx context.Context, path, parentID, name string, returnIfExists bool) (models.BaseFileInfo, error) {
	fullPath := strings.TrimSuffix(path, "/") + "/" + name

	var env alistEnvelope
	err := c.call(ctx, http.MethodPost, "/api/fs/mkdir", map[string]any{"path": fullPath}, &env)
	if err != nil {
		be, isBusinessErr := err.(*services.ProviderBusinessError)
		if isBusinessErr && strings.Contains(strings.ToLower(be.Message), "exist") {
			if !returnIfExists {
				return models.BaseFileInfo{}, be
			}
			return models.BaseFileInfo{
				FileID:   fullPath,
				FileName: name,
				FilePath: fullPath,
				IsFolder: true,
				ParentID: path,
			}, nil
		}
		return models.BaseFileInfo{}, err
	}

	return models.BaseFileInfo{
		FileID:   fullPath,
		FileName: name,
		FilePath: fullPath,
		IsFolder: true,
		ParentID: path,
	}, nil
}

func (c *Client) Remove(ctx context.Context, p services.RemoveParams) (bool, error) {
	if len(p.Paths) == 0 {
		return true, nil
	}

	dirsByParent := make(map[string][]string)
	for _, full := range p.Paths {
		idx := strings.LastIndex(full, "/")
		parent, name := "/", full
		if idx >= 0 {
			parent, name = full[:idx], full[idx+1:]
			if parent == "" {
				parent = "/"
			}
		}
		dirsByParent[parent] = append(dirsByParent[parent], name)
	}

	for parent, names := range dirsByParent {
		var env alistEnvelope
		body := map[string]any{"dir": parent, "names": names}
		if err := c.call(ctx, http.MethodPost, "/api/fs/remove", body, &env); err != nil {
			return false, err
		}
	}

	return true, nil
}

// Transfer copies source paths into the target directory server-side via
// Alist's /api/fs/copy, the closest analogue to Baidu/Quark's share
// transfer for a same-instance move between visible paths.
func (c *Client) Transfer(ctx context.Context, p services.TransferParams) (bool, error) {
	if len(p.FileIDs) == 0 {
		return true, nil
	}

	srcParent := "/"
	names := make([]string, 0, len(p.FileIDs))
	for _, full := range p.FileIDs {
		idx := strings.LastIndex(full, "/")
		if idx >= 0 {
			srcParent = full[:idx]
			if srcParent == "" {
				srcParent = "/"
			}
			names = append(names, full[idx+1:])
		} else {
			names = append(names, full)
		}
	}

	var env alistEnvelope
	body := map[string]any{"src_dir": srcParent, "dst_dir": p.TargetPath, "names": names}
	if err := c.call(ctx, http.MethodPost, "/api/fs/copy", body, &env); err != nil {
		return false, err
	}
	return true, nil
}

// GetRelationships has no Alist analogue; a self-hosted instance has no
// friend/group social graph, only path permissions managed out of band.
func (c *Client) GetRelationships(ctx context.Context, kind models.RelationshipKind) ([]models.RelationshipItem, error) {
	return nil, &services.ValidationError{Field: "kind", Reason: "alist has no relationship graph"}
}

// Package quark implements services.ProviderClient against Quark's JSON
// REST surface under drive-pc.quark.cn/1/clouddrive/*.
package quark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"drivesync/domain/models"
	"drivesync/domain/services"
	"drivesync/infrastructure/providers/pclient"
)

// Client is a Quark Drive ProviderClient, authenticated via the
// __pus/__puus session cookies.
type Client struct {
	http    *http.Client
	baseURL string
	creds   pclient.CookieCredentials

	mu           sync.Mutex
	unauthorized bool
}

func NewClient(rawCredentials, baseURL string, timeoutSeconds int) (services.ProviderClient, error) {
	creds := pclient.ParseCookieCredentials(rawCredentials)
	if creds.Get("__pus") == "" {
		return nil, &services.AuthError{DriveType: string(models.DriveTypeQuark), Reason: "missing required __pus cookie"}
	}

	httpClient, err := pclient.NewCookieHTTPClient(baseURL, time.Duration(timeoutSeconds)*time.Second, creds)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		creds:   creds,
	}, nil
}

func (c *Client) DriveType() models.DriveType { return models.DriveTypeQuark }

type quarkEnvelope struct {
	Status  int             `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any, out *quarkEnvelope) error {
	op := path
	var lastErr error

	for attempt := 0; attempt <= 3; attempt++ {
		u := fmt.Sprintf("%s%s", c.baseURL, path)
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		var reqBody io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return err
			}
			reqBody = strings.NewReader(string(raw))
		}

		req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
		if err != nil {
			return err
		}
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
			c.mu.Lock()
			c.unauthorized = true
			c.mu.Unlock()
			return &services.AuthError{DriveType: string(models.DriveTypeQuark), Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
		}
		if resp.StatusCode >= 500 || resp.StatusCode == 429 {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			time.Sleep(time.Duration(attempt+1) * 300 * time.Millisecond)
			continue
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return &services.InternalError{Reason: "unparseable quark response for " + op, Cause: err}
		}
		if out.Status != 200 && out.Code != 0 {
			return &services.ProviderBusinessError{DriveType: string(models.DriveTypeQuark), Op: op, Code: strconv.Itoa(out.Code), Message: out.Message}
		}
		return nil
	}

	return &services.ProviderTransientError{DriveType: string(models.DriveTypeQuark), Op: op, Cause: lastErr}
}

func (c *Client) GetUserInfo(ctx context.Context) (models.UserInfo, error) {
	var env quarkEnvelope
	if err := c.call(ctx, http.MethodGet, "/1/clouddrive/member", url.Values{"fetch_subscribe": {"true"}}, nil, &env); err != nil {
		return models.UserInfo{}, err
	}

	var data struct {
		UserID      string `json:"kps"`
		Nickname    string `json:"nickname"`
		TotalCap    int64  `json:"total_capacity"`
		UseCap      int64  `json:"use_capacity"`
		MemberType  string `json:"member_type"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return models.UserInfo{}, &services.InternalError{Reason: "unparseable quark member payload", Cause: err}
	}

	return models.UserInfo{
		RemoteUserID: data.UserID,
		DisplayName:  data.Nickname,
		Quota:        data.TotalCap,
		Used:         data.UseCap,
		IsVIP:        data.MemberType != "" && data.MemberType != "NORMAL",
		IsSuperVIP:   data.MemberType == "SUPER_VIP",
	}, nil
}

type quarkFile struct {
	FID      string `json:"fid"`
	FileName string `json:"file_name"`
	Dir      bool   `json:"dir"`
	Size     int64  `json:"size"`
	PdirFID  string `json:"pdir_fid"`
	CreateTS int64  `json:"created_at"`
	UpdateTS int64  `json:"updated_at"`
}

func toBaseFileInfo(f quarkFile, path string) models.BaseFileInfo {
	return models.BaseFileInfo{
		FileID:    f.FID,
		FileName:  f.FileName,
		FilePath:  path,
		IsFolder:  f.Dir,
		FileSize:  f.Size,
		ParentID:  f.PdirFID,
		CreatedAt: time.UnixMilli(f.CreateTS).UTC().Format(time.RFC3339),
		UpdatedAt: time.UnixMilli(f.UpdateTS).UTC().Format(time.RFC3339),
	}
}

func (c *Client) ListDisk(ctx context.Context, p services.ListDiskParams) ([]models.BaseFileInfo, error) {
	var all []models.BaseFileInfo
	type node struct{ fid, path string }
	queue := []node{{fid: p.FileID, path: p.Path}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if p.Speed == models.RecursionSpeedSlow {
			time.Sleep(3 * time.Second)
		}

		children, err := c.listDir(ctx, cur.fid, p.Order)
		if err != nil {
			return nil, err
		}

		for _, f := range children {
			childPath := strings.TrimSuffix(cur.path, "/") + "/" + f.FileName
			info := toBaseFileInfo(f, childPath)
			if info.ParentID == "" {
				info.ParentID = cur.fid
			}
			if p.Filter != nil && p.Filter.Excluded(info) {
				continue
			}
			all = append(all, info)
			if info.IsFolder && p.Recursive {
				queue = append(queue, node{fid: info.FileID, path: childPath})
			}
		}
	}

	return all, nil
}

func (c *Client) listDir(ctx context.Context, pdirFID string, order services.SortOrder) ([]quarkFile, error) {
	sortBy := "file_name"
	switch order.By {
	case "time":
		sortBy = "updated_at"
	case "size":
		sortBy = "size"
	}
	sortDir := "asc"
	if order.Desc {
		sortDir = "desc"
	}

	var env quarkEnvelope
	q := url.Values{"pdir_fid": {pdirFID}, "_sort": {sortBy + ":" + sortDir}, "_page": {"1"}, "_size": {"500"}}
	if err := c.call(ctx, http.MethodGet, "/1/clouddrive/file/sort", q, nil, &env); err != nil {
		return nil, err
	}

	var data struct {
		List []quarkFile `json:"list"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &services.InternalError{Reason: "unparseable quark file list", Cause: err}
	}
	return data.List, nil
}

func (c *Client) ListShare(ctx context.Context, p services.ListShareParams) ([]models.BaseFileInfo, error) {
	if p.Path == "" || p.Path == "/" {
		return nil, &services.ValidationError{Field: "share.path", Reason: "share path must be non-empty and non-root"}
	}

	components := strings.Split(strings.Trim(p.Path, "/"), "/")
	eventName := components[0]

	shareID, rootFID, err := c.findShareEvent(ctx, p.SourceID, eventName)
	if err != nil {
		return nil, err
	}

	currentFID := rootFID
	for _, comp := range components[1:] {
		children, err := c.shareDetail(ctx, shareID, currentFID)
		if err != nil {
			return nil, err
		}
		found := false
		for _, ch := range children {
			if ch.FileName == comp {
				currentFID = ch.FID
				found = true
				break
			}
		}
		if !found {
			return nil, &services.NotFoundError{Resource: "share_path_component", ID: comp}
		}
	}

	var all []models.BaseFileInfo
	type node struct{ fid, path string }
	queue := []node{{fid: currentFID, path: p.Path}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if p.Speed == models.RecursionSpeedSlow {
			time.Sleep(3 * time.Second)
		}

		children, err := c.shareDetail(ctx, shareID, cur.fid)
		if err != nil {
			return nil, err
		}
		for _, f := range children {
			childPath := strings.TrimSuffix(cur.path, "/") + "/" + f.FileName
			info := toBaseFileInfo(f, childPath)
			info.ParentID = cur.fid
			info = info.WithExt("share_id", shareID)
			if p.Filter != nil && p.Filter.Excluded(info) {
				continue
			}
			all = append(all, info)
			if info.IsFolder && p.Recursive {
				queue = append(queue, node{fid: info.FileID, path: childPath})
			}
		}
	}

	return all, nil
}

func (c *Client) findShareEvent(ctx context.Context, sourceID, eventName string) (shareID, rootFID string, err error) {
	var env quarkEnvelope
	q := url.Values{"to_uid": {sourceID}, "_page": {"1"}, "_size": {"100"}}
	if err := c.call(ctx, http.MethodGet, "/1/clouddrive/share/sharepage/detail", q, nil, &env); err != nil {
		return "", "", err
	}

	var data struct {
		List []struct {
			ShareID  string `json:"share_id"`
			Title    string `json:"title"`
			FirstFID string `json:"first_fid"`
		} `json:"list"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", "", &services.InternalError{Reason: "unparseable quark share list", Cause: err}
	}

	for _, s := range data.List {
		if s.Title == eventName {
			return s.ShareID, s.FirstFID, nil
		}
	}
	return "", "", &services.NotFoundError{Resource: "share_event", ID: eventName}
}

func (c *Client) shareDetail(ctx context.Context, shareID, pdirFID string) ([]quarkFile, error) {
	var env quarkEnvelope
	q := url.Values{"share_id": {shareID}, "pdir_fid": {pdirFID}, "_page": {"1"}, "_size": {"500"}}
	if err := c.call(ctx, http.MethodGet, "/1/clouddrive/share/sharepage/list", q, nil, &env); err != nil {
		return nil, err
	}

	var data struct {
		List []quarkFile `json:"list"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &services.InternalError{Reason: "unparseable quark share detail", Cause: err}
	}
	return data.List, nil
}

func (c *Client) Mkdir(ctx context.Context, path, parentID, name string, returnIfExists bool) (models.BaseFileInfo, error) {
	body := map[string]any{"pdir_fid": parentID, "file_name": name, "dir_path": "", "dir_init_lock": false}

	var env quarkEnvelope
	err := c.call(ctx, http.MethodPost, "/1/clouddrive/file", nil, body, &env)
	if err != nil {
		var bizErr *services.ProviderBusinessError
		if asBusinessError(err, &bizErr) && bizErr.Code == "23008" {
			if !returnIfExists {
				return models.BaseFileInfo{}, bizErr
			}
			children, lerr := c.listDir(ctx, parentID, services.SortOrder{})
			if lerr == nil {
				for _, ch := range children {
					if ch.FileName == name {
						return toBaseFileInfo(ch, strings.TrimSuffix(path, "/")+"/"+name), nil
					}
				}
			}
		}
		return models.BaseFileInfo{}, err
	}

	var data struct {
		FID string `json:"fid"`
	}
	_ = json.Unmarshal(env.Data, &data)

	return models.BaseFileInfo{
		FileID:   data.FID,
		FileName: name,
		FilePath: strings.TrimSuffix(path, "/") + "/" + name,
		IsFolder: true,
		ParentID: parentID,
	}, nil
}

func asBusinessError(err error, target **services.ProviderBusinessError) bool {
	be, ok := err.(*services.ProviderBusinessError)
	if ok {
		*target = be
	}
	return ok
}

func (c *Client) Remove(ctx context.Context, p services.RemoveParams) (bool, error) {
	if len(p.IDs) == 0 {
		return true, nil
	}

	body := map[string]any{"action_type": 2, "filelist": p.IDs, "exclude_fids": []string{}}
	var env quarkEnvelope
	if err := c.call(ctx, http.MethodPost, "/1/clouddrive/file/delete", nil, body, &env); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) Transfer(ctx context.Context, p services.TransferParams) (bool, error) {
	if len(p.FileIDs) == 0 {
		return true, nil
	}

	shareID, _ := p.Ext["share_id"].(string)
	body := map[string]any{
		"fid_list":    p.FileIDs,
		"to_pdir_fid": p.TargetID,
		"share_id":    shareID,
	}

	var env quarkEnvelope
	if err := c.call(ctx, http.MethodPost, "/1/clouddrive/share/sharepage/save", nil, body, &env); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) GetRelationships(ctx context.Context, kind models.RelationshipKind) ([]models.RelationshipItem, error) {
	// Quark's consumer product has no friend/group social graph comparable
	// to Baidu's; only the list-share-by-recipient flow exists, which
	// list_share already models directly via source_id.
	return nil, &services.ValidationError{Field: "kind", Reason: "quark has no relationship graph; pass source_id directly to list_share"}
}

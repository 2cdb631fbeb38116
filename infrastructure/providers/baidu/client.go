// Package baidu implements services.ProviderClient against Baidu Pan's
// PCS REST surface (pcs.baidu.com/rest/2.0/pcs/*) and the pan.baidu.com
// browser endpoints that transfer and share operations actually live
// under.
package baidu

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"drivesync/domain/models"
	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

const defaultUA = "netdisk;11.9.5;PC;PC-Windows;10.0.19045;WindowsBaiduYunGuanJia"

// Client is a Baidu Pan ProviderClient. It is safe for concurrent use by
// multiple goroutines; bdstoken is resolved lazily and memoized.
type Client struct {
	http    *http.Client
	baseURL string

	bduss    string
	baiduid  string
	userID   string

	mu          sync.Mutex
	bdstoken    string
	unauthorized bool
}

// NewClient parses the raw cookie-string credential blob and builds a
// client whose BDUSS (required) drives every authenticated call. STOKEN,
// PTOKEN, BAIDUID ride along in the same cookie jar when present.
func NewClient(rawCredentials, baseURL string, timeoutSeconds int) (services.ProviderClient, error) {
	cookies := parseCookies(rawCredentials)
	bduss := cookies["BDUSS"]
	if bduss == "" {
		return nil, &services.AuthError{DriveType: string(models.DriveTypeBaidu), Reason: "missing required BDUSS cookie"}
	}

	jar := &cookieJar{cookies: cookies}
	httpClient := &http.Client{
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
		Transport: &cookieTransport{jar: jar, base: http.DefaultTransport},
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		bduss:   bduss,
		baiduid: cookies["BAIDUID"],
	}, nil
}

func (c *Client) DriveType() models.DriveType { return models.DriveTypeBaidu }

func parseCookies(raw string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return out
}

// cookieJar/cookieTransport implement a minimal static cookie attacher;
// Baidu's auth cookies never rotate mid-session so a full
// net/http/cookiejar round trip is unnecessary overhead here.
type cookieJar struct{ cookies map[string]string }

type cookieTransport struct {
	jar  *cookieJar
	base http.RoundTripper
}

func (t *cookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var b strings.Builder
	first := true
	for k, v := range t.jar.cookies {
		if !first {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		first = false
	}
	req.Header.Set("Cookie", b.String())
	req.Header.Set("User-Agent", defaultUA)
	return t.base.RoundTrip(req)
}

// logid is base64(BAIDUID), required on PCS transfer-adjacent calls.
func (c *Client) logid() string {
	return base64.StdEncoding.EncodeToString([]byte(c.baiduid))
}

// ensureBdstoken scrapes bdstoken from /disk/home on first use and
// memoizes it; every transfer call depends on this token being present.
func (c *Client) ensureBdstoken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bdstoken != "" {
		return c.bdstoken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://pan.baidu.com/disk/home", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &services.ProviderTransientError{DriveType: string(models.DriveTypeBaidu), Op: "ensure_bdstoken", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	re := regexp.MustCompile(`bdstoken["\s:=]+["']?([a-f0-9]{32})`)
	m := re.FindSubmatch(body)
	if m == nil {
		return "", &services.AuthError{DriveType: string(models.DriveTypeBaidu), Reason: "could not scrape bdstoken from /disk/home"}
	}
	c.bdstoken = string(m[1])
	return c.bdstoken, nil
}

// doJSON issues a GET/POST against pan.baidu.com or pcs.baidu.com and
// decodes a JSON response. Network errors and 5xx/429 responses are retried
// up to three times with a sleep that grows by 300ms per attempt; an HTTP
// 401/403 marks the client unauthorized and returns AuthError at once,
// without a retry, since Baidu has no re-login path from the cookies on hand.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, form url.Values, out any) error {
	op := rawURL
	attempt := 0
	for {
		attempt++
		var req *http.Request
		var err error
		if method == http.MethodGet {
			req, err = http.NewRequestWithContext(ctx, method, rawURL, nil)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, rawURL, strings.NewReader(form.Encode()))
			if req != nil {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
		}
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt > 3 {
				return &services.ProviderTransientError{DriveType: string(models.DriveTypeBaidu), Op: op, Cause: err}
			}
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.mu.Lock()
			c.unauthorized = true
			c.mu.Unlock()
			return &services.AuthError{DriveType: string(models.DriveTypeBaidu), Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
		}
		if resp.StatusCode >= 500 || resp.StatusCode == 429 {
			if attempt > 3 {
				return &services.ProviderTransientError{DriveType: string(models.DriveTypeBaidu), Op: op}
			}
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return &services.InternalError{Reason: "unparseable baidu response for " + op, Cause: err}
			}
		}
		return nil
	}
}

type baiduErrno struct {
	Errno int    `json:"errno"`
	Msg   string `json:"errmsg"`
}

func (c *Client) GetUserInfo(ctx context.Context) (models.UserInfo, error) {
	if c.unauthorized {
		return models.UserInfo{}, &services.AuthError{DriveType: string(models.DriveTypeBaidu), Reason: "client unauthorized"}
	}

	var resp struct {
		baiduErrno
		UK         string `json:"uk"`
		Uname      string `json:"baidu_name"`
		VipType    int    `json:"vip_type"`
	}
	u := fmt.Sprintf("%s/rest/2.0/xpan/nas?method=uinfo", strings.Replace(c.baseURL, "pan.baidu.com", "pan.baidu.com", 1))
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return models.UserInfo{}, err
	}
	if resp.Errno != 0 {
		return models.UserInfo{}, &services.ProviderBusinessError{DriveType: string(models.DriveTypeBaidu), Op: "get_user_info", Code: strconv.Itoa(resp.Errno), Message: resp.Msg}
	}
	c.userID = resp.UK

	var quotaResp struct {
		baiduErrno
		Total int64 `json:"total"`
		Used  int64 `json:"used"`
	}
	qu := fmt.Sprintf("%s/api/quota", c.baseURL)
	_ = c.doJSON(ctx, http.MethodGet, qu, nil, &quotaResp)

	return models.UserInfo{
		RemoteUserID: resp.UK,
		DisplayName:  resp.Uname,
		IsVIP:        resp.VipType > 0,
		IsSuperVIP:   resp.VipType == 2,
		Quota:        quotaResp.Total,
		Used:         quotaResp.Used,
	}, nil
}

func (c *Client) ListDisk(ctx context.Context, p services.ListDiskParams) ([]models.BaseFileInfo, error) {
	var all []models.BaseFileInfo
	queue := []string{p.Path}
	rootID := p.FileID

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		if p.Speed == models.RecursionSpeedSlow {
			time.Sleep(3 * time.Second)
		}

		children, err := c.listOneLevel(ctx, dir, p.Order)
		if err != nil {
			return nil, err
		}

		for _, item := range children {
			if item.ParentID == "" {
				item.ParentID = rootID
			}
			if p.Filter != nil && p.Filter.Excluded(item) {
				continue
			}
			all = append(all, item)
			if item.IsFolder && p.Recursive {
				queue = append(queue, item.FilePath)
			}
		}
	}

	return all, nil
}

func (c *Client) listOneLevel(ctx context.Context, dir string, order services.SortOrder) ([]models.BaseFileInfo, error) {
	var resp struct {
		baiduErrno
		List []struct {
			FsID     int64  `json:"fs_id"`
			ServerFn string `json:"server_filename"`
			Path     string `json:"path"`
			IsDir    int    `json:"isdir"`
			Size     int64  `json:"size"`
			Ctime    int64  `json:"server_ctime"`
			Mtime    int64  `json:"server_mtime"`
		} `json:"list"`
	}

	by := "name"
	if order.By != "" {
		by = order.By
	}
	desc := "0"
	if order.Desc {
		desc = "1"
	}

	u := fmt.Sprintf("%s/rest/2.0/xpan/file?method=list&dir=%s&order=%s&desc=%s",
		c.baseURL, url.QueryEscape(dir), by, desc)
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Errno != 0 {
		return nil, &services.ProviderBusinessError{DriveType: string(models.DriveTypeBaidu), Op: "list_disk", Code: strconv.Itoa(resp.Errno), Message: "pcs list error"}
	}

	out := make([]models.BaseFileInfo, 0, len(resp.List))
	for _, it := range resp.List {
		out = append(out, models.BaseFileInfo{
			FileID:    strconv.FormatInt(it.FsID, 10),
			FileName:  it.ServerFn,
			FilePath:  it.Path,
			IsFolder:  it.IsDir == 1,
			FileSize:  it.Size,
			CreatedAt: time.Unix(it.Ctime, 0).UTC().Format(time.RFC3339),
			UpdatedAt: time.Unix(it.Mtime, 0).UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// ListShare navigates a counterparty's share event tree. path's first
// component names the share event; the client enumerates share events
// to find it, then walks remaining components via the share-detail
// endpoint, carrying (from_uk, msg_id, fs_id) forward at each hop.
func (c *Client) ListShare(ctx context.Context, p services.ListShareParams) ([]models.BaseFileInfo, error) {
	if p.Path == "" || p.Path == "/" {
		return nil, &services.ValidationError{Field: "share.path", Reason: "share path must be non-empty and non-root"}
	}

	components := strings.Split(strings.Trim(p.Path, "/"), "/")
	eventName := components[0]

	fromUK, msgID, rootFsID, err := c.findShareEvent(ctx, p.SourceType, p.SourceID, eventName)
	if err != nil {
		return nil, err
	}

	currentFsID := rootFsID
	for _, comp := range components[1:] {
		children, err := c.shareDetail(ctx, fromUK, msgID, currentFsID)
		if err != nil {
			return nil, err
		}
		found := false
		for _, ch := range children {
			if ch.FileName == comp {
				currentFsID = ch.FileID
				found = true
				break
			}
		}
		if !found {
			return nil, &services.NotFoundError{Resource: "share_path_component", ID: comp}
		}
	}

	var all []models.BaseFileInfo
	queue := []string{currentFsID}
	for len(queue) > 0 {
		fsID := queue[0]
		queue = queue[1:]

		if p.Speed == models.RecursionSpeedSlow {
			time.Sleep(3 * time.Second)
		}

		children, err := c.shareDetail(ctx, fromUK, msgID, fsID)
		if err != nil {
			return nil, err
		}
		for _, ch := range children {
			ch.ParentID = fsID
			ch = ch.WithExt("from_uk", fromUK)
			ch = ch.WithExt("msg_id", msgID)
			if p.Filter != nil && p.Filter.Excluded(ch) {
				continue
			}
			all = append(all, ch)
			if ch.IsFolder && p.Recursive {
				queue = append(queue, ch.FileID)
			}
		}
	}

	return all, nil
}

func (c *Client) findShareEvent(ctx context.Context, sourceType models.SourceType, sourceID, eventName string) (fromUK, msgID, rootFsID string, err error) {
	var resp struct {
		baiduErrno
		Records []struct {
			FromUK int64  `json:"from_uk"`
			MsgID  int64  `json:"msg_id"`
			Fname  string `json:"fname"`
			FsID   int64  `json:"fs_id"`
		} `json:"records"`
	}

	method := "sharelist"
	if sourceType == models.SourceTypeGroup {
		method = "groupsharelist"
	}
	u := fmt.Sprintf("%s/share/%s?uk=%s", c.baseURL, method, url.QueryEscape(sourceID))
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return "", "", "", err
	}
	if resp.Errno != 0 {
		return "", "", "", &services.ProviderBusinessError{DriveType: string(models.DriveTypeBaidu), Op: "list_share", Code: strconv.Itoa(resp.Errno), Message: "share list error"}
	}

	for _, r := range resp.Records {
		if r.Fname == eventName {
			return strconv.FormatInt(r.FromUK, 10), strconv.FormatInt(r.MsgID, 10), strconv.FormatInt(r.FsID, 10), nil
		}
	}
	return "", "", "", &services.NotFoundError{Resource: "share_event", ID: eventName}
}

func (c *Client) shareDetail(ctx context.Context, fromUK, msgID, fsID string) ([]models.BaseFileInfo, error) {
	var resp struct {
		baiduErrno
		List []struct {
			FsID       int64  `json:"fs_id"`
			ServerFn   string `json:"server_filename"`
			Path       string `json:"path"`
			IsDir      int    `json:"isdir"`
			Size       int64  `json:"size"`
			ShareToken string `json:"share_fid_token"`
		} `json:"list"`
	}

	u := fmt.Sprintf("%s/share/list?from_uk=%s&msg_id=%s&fsid=%s", c.baseURL, fromUK, msgID, fsID)
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Errno != 0 {
		return nil, &services.ProviderBusinessError{DriveType: string(models.DriveTypeBaidu), Op: "share_detail", Code: strconv.Itoa(resp.Errno), Message: "share expired or revoked"}
	}

	out := make([]models.BaseFileInfo, 0, len(resp.List))
	for _, it := range resp.List {
		info := models.BaseFileInfo{
			FileID:   strconv.FormatInt(it.FsID, 10),
			FileName: it.ServerFn,
			FilePath: it.Path,
			IsFolder: it.IsDir == 1,
			FileSize: it.Size,
		}
		if it.ShareToken != "" {
			info = info.WithExt("share_fid_token", it.ShareToken)
		}
		out = append(out, info)
	}
	return out, nil
}

func (c *Client) Mkdir(ctx context.Context, path, parentID, name string, returnIfExists bool) (models.BaseFileInfo, error) {
	full := strings.TrimSuffix(path, "/") + "/" + name

	bdstoken, err := c.ensureBdstoken(ctx)
	if err != nil {
		return models.BaseFileInfo{}, err
	}

	var resp struct {
		baiduErrno
		FsID int64 `json:"fs_id"`
	}
	form := url.Values{"path": {full}, "isdir": {"1"}, "bdstoken": {bdstoken}}
	u := fmt.Sprintf("%s/api/create", c.baseURL)
	if err := c.doJSON(ctx, http.MethodPost, u, form, &resp); err != nil {
		return models.BaseFileInfo{}, err
	}

	const errnoExists = -8
	if resp.Errno == errnoExists {
		if !returnIfExists {
			return models.BaseFileInfo{}, &services.ProviderBusinessError{DriveType: string(models.DriveTypeBaidu), Op: "mkdir", Code: "-8", Message: "directory already exists"}
		}
		existing, err := c.listOneLevel(ctx, path, services.SortOrder{})
		if err == nil {
			for _, e := range existing {
				if e.FileName == name {
					return e, nil
				}
			}
		}
	} else if resp.Errno != 0 {
		return models.BaseFileInfo{}, &services.ProviderBusinessError{DriveType: string(models.DriveTypeBaidu), Op: "mkdir", Code: strconv.Itoa(resp.Errno), Message: "mkdir failed"}
	}

	return models.BaseFileInfo{
		FileID:   strconv.FormatInt(resp.FsID, 10),
		FileName: name,
		FilePath: full,
		IsFolder: true,
		ParentID: parentID,
	}, nil
}

func (c *Client) Remove(ctx context.Context, p services.RemoveParams) (bool, error) {
	if len(p.Paths) == 0 {
		return true, nil
	}

	bdstoken, err := c.ensureBdstoken(ctx)
	if err != nil {
		return false, err
	}

	raw, _ := json.Marshal(p.Paths)
	form := url.Values{"filelist": {string(raw)}, "bdstoken": {bdstoken}}

	var resp baiduErrno
	u := fmt.Sprintf("%s/api/filemanager?opera=delete", c.baseURL)
	if err := c.doJSON(ctx, http.MethodPost, u, form, &resp); err != nil {
		return false, err
	}
	return resp.Errno == 0, nil
}

func (c *Client) Transfer(ctx context.Context, p services.TransferParams) (bool, error) {
	if len(p.FileIDs) == 0 {
		return true, nil
	}

	bdstoken, err := c.ensureBdstoken(ctx)
	if err != nil {
		return false, err
	}

	ondup := "newcopy"
	if v, ok := p.Ext["ondup"].(string); ok && v != "" {
		ondup = v
	}

	sort.Strings(p.FileIDs)

	type transferItem struct {
		FsID int64 `json:"fsidlist"`
	}
	ids := make([]int64, 0, len(p.FileIDs))
	for _, id := range p.FileIDs {
		n, _ := strconv.ParseInt(id, 10, 64)
		ids = append(ids, n)
	}
	rawIDs, _ := json.Marshal(ids)

	fromUK, _ := p.Ext["from_uk"].(string)
	msgID, _ := p.Ext["msg_id"].(string)

	form := url.Values{
		"fsidlist": {string(rawIDs)},
		"path":     {p.TargetPath},
		"ondup":    {ondup},
		"bdstoken": {bdstoken},
		"logid":    {c.logid()},
		"from_uk":  {fromUK},
		"msg_id":   {msgID},
	}

	var resp baiduErrno
	u := fmt.Sprintf("%s/share/transfer", c.baseURL)
	if err := c.doJSON(ctx, http.MethodPost, u, form, &resp); err != nil {
		return false, err
	}
	if resp.Errno != 0 {
		return false, &services.ProviderBusinessError{DriveType: string(models.DriveTypeBaidu), Op: "transfer", Code: strconv.Itoa(resp.Errno), Message: "transfer rejected"}
	}

	logger.Provider("transfer", "baidu transfer completed", map[string]interface{}{"target_path": p.TargetPath, "count": len(p.FileIDs)})
	return true, nil
}

func (c *Client) GetRelationships(ctx context.Context, kind models.RelationshipKind) ([]models.RelationshipItem, error) {
	method := "friendlist"
	if kind == models.RelationshipKindGroup {
		method = "grouplist"
	}

	var all []models.RelationshipItem
	page := 1
	for {
		var resp struct {
			baiduErrno
			List []struct {
				UK   int64  `json:"uk"`
				Name string `json:"uname"`
			} `json:"list"`
			HasMore bool `json:"has_more"`
		}
		u := fmt.Sprintf("%s/share/%s?page=%d", c.baseURL, method, page)
		if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
			return nil, err
		}
		if resp.Errno != 0 {
			return nil, &services.ProviderBusinessError{DriveType: string(models.DriveTypeBaidu), Op: "get_relationships", Code: strconv.Itoa(resp.Errno), Message: "relationship list error"}
		}
		for _, r := range resp.List {
			all = append(all, models.RelationshipItem{ID: strconv.FormatInt(r.UK, 10), DisplayName: r.Name, Kind: kind})
		}
		if !resp.HasMore {
			break
		}
		page++
	}
	return all, nil
}

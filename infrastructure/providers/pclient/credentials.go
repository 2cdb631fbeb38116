package pclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// CookieCredentials parses a raw cookie-string credential blob
// ("k1=v1; k2=v2") into a lookup map, the shared shape Baidu and Quark
// both authenticate with.
type CookieCredentials struct {
	Values map[string]string
	Raw    string
}

func ParseCookieCredentials(raw string) CookieCredentials {
	values := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		values[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return CookieCredentials{Values: values, Raw: raw}
}

func (c CookieCredentials) Get(key string) string {
	return c.Values[key]
}

// NewCookieHTTPClient builds an http.Client whose jar is pre-seeded with
// the parsed cookie values for host, so every outgoing request carries
// the credential cookie set without the caller re-attaching headers.
func NewCookieHTTPClient(host string, timeout time.Duration, creds CookieCredentials) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, err
	}

	cookies := make([]*http.Cookie, 0, len(creds.Values))
	for k, v := range creds.Values {
		cookies = append(cookies, &http.Cookie{Name: k, Value: v})
	}
	jar.SetCookies(u, cookies)

	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

package util

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// GetBytes downloads url and fails when the body exceeds limit bytes.
func GetBytes(url string, limit int64) ([]byte, error) {
	client := http.Client{Timeout: 12 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("get %s: body larger than %d bytes", url, limit)
	}
	return body, nil
}

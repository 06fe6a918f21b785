package httpx

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"
)

type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Message)
}

// Temporary reports whether the request may succeed if retried.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

func newClient(timeout time.Duration, overrideTransport ...http.RoundTripper) *http.Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if len(overrideTransport) > 0 {
		return &http.Client{
			Transport: overrideTransport[0],
			Timeout:   timeout,
		}
	}
	return &http.Client{
		Timeout: timeout,
	}
}

func getRequest(url string, reqObj Requester, respObj interface{}, timeout time.Duration, overrideTransport ...http.RoundTripper) error {
	q, err := structToQueryString(reqObj)
	if err != nil {
		return err
	}
	if q != "" {
		url = fmt.Sprintf("%s?%s", url, q)
	}
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := newClient(timeout, overrideTransport...).Do(request)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if response.Body == nil {
		return &HTTPError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Message:    "empty response body",
		}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		body, _ := io.ReadAll(response.Body)
		msg := string(body)
		var e errorRsp
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &HTTPError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Message:    msg,
		}
	}

	if err := json.NewDecoder(response.Body).Decode(respObj); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// structToQueryString encodes the fields of s tagged with `query` into a query
// string. Zero values are skipped.
func structToQueryString(s interface{}) (string, error) {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return "", fmt.Errorf("input must be a pointer to a struct")
	}

	v = v.Elem()
	t := v.Type()
	values := url.Values{}

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		key := strings.Split(field.Tag.Get("query"), ",")[0]
		if key == "" || key == "-" {
			continue
		}
		fieldValue := v.Field(i)
		if fieldValue.IsZero() {
			continue
		}
		if fieldValue.Kind() == reflect.Ptr {
			fieldValue = fieldValue.Elem()
		}
		values.Add(key, fmt.Sprintf("%v", fieldValue.Interface()))
	}

	return values.Encode(), nil
}

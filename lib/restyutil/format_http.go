package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

const redacted = "[redacted]"

var sensitiveHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
}

var (
	ticketParam = regexp.MustCompile(`(ticket=)[^&\s"]+`)
	inputTag    = regexp.MustCompile(`(?i)<input[^>]*>`)
	hiddenType  = regexp.MustCompile(`(?i)type\s*=\s*["']?hidden`)
	valueAttr   = regexp.MustCompile(`(?i)(value\s*=\s*")[^"]*(")`)
)

const formMediaType = "application/x-www-form-urlencoded"

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			if slices.Contains(sensitiveHeaders, http.CanonicalHeaderKey(k)) {
				v = redacted
			}
			out.WriteString(fmt.Sprintf("%s: %s\n", k, v))
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

// form fields keep their names, every value is masked.
func redactForm(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return redacted
	}
	masked := url.Values{}
	for k := range values {
		masked.Set(k, redacted)
	}
	return masked.Encode()
}

// hidden inputs hold per-login correlation tokens.
func redactHTML(body string) string {
	return inputTag.ReplaceAllStringFunc(body, func(tag string) string {
		if !hiddenType.MatchString(tag) {
			return tag
		}
		return valueAttr.ReplaceAllString(tag, "${1}"+redacted+"${2}")
	})
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	if strings.HasPrefix(req.Header.Get("Content-Type"), formMediaType) {
		return redactForm(string(readBody))
	}
	return redacted
}

// 1: request method
// 2: request url
// 3: request headers in ("Key: Value" format)
// 4: request body
// 5: response status
// 6: response url
// 7: response headers in ("Key: Value" format)
// 8: response body
const messageInfoTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s %s

%s

%s`

func formatHttpMessage(res *resty.Response) string {
	var requestHeaders string
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
	}

	responseUrl := res.Request.URL
	if res.RawResponse != nil {
		redirected, err := res.RawResponse.Location()
		if err == nil {
			responseUrl = redirected.String()
		}
	}

	message := fmt.Sprintf(
		messageInfoTemplate,

		res.Request.Method, res.Request.URL,
		requestHeaders,
		formatRequestBody(res.Request.RawRequest),

		strconv.Itoa(res.StatusCode()), responseUrl,
		formatHeaders(res.Header()),
		redactHTML(res.String()),
	)
	return ticketParam.ReplaceAllString(message, "${1}"+redacted)
}

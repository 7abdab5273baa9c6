package creds

import (
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
)

func AddSecret(value string) {
	if value == "" {
		return
	}

	secretsMu.Lock()
	defer secretsMu.Unlock()

	if slices.Contains(secrets, value) {
		return
	}

	secrets = append(secrets, value)
	secretsReplacer = nil
}

// AddURL hides the password of the camera url
func AddURL(rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return
	}
	if pass, ok := u.User.Password(); ok {
		AddSecret(pass)
	}
}

var secrets []string
var secretsMu sync.Mutex
var secretsReplacer *strings.Replacer

func getReplacer() *strings.Replacer {
	secretsMu.Lock()
	defer secretsMu.Unlock()

	if secretsReplacer == nil {
		oldnew := make([]string, 0, 2*len(secrets))
		for _, s := range secrets {
			oldnew = append(oldnew, s, "***")
		}
		secretsReplacer = strings.NewReplacer(oldnew...)
	}

	return secretsReplacer
}

func SecretString(s string) string {
	return getReplacer().Replace(s)
}

func SecretWriter(w io.Writer) io.Writer {
	return &secretWriter{w}
}

type secretWriter struct {
	w io.Writer
}

func (s *secretWriter) Write(b []byte) (int, error) {
	if _, err := getReplacer().WriteString(s.w, string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

func SecretResponse(w http.ResponseWriter) http.ResponseWriter {
	return &secretResponse{w}
}

type secretResponse struct {
	w http.ResponseWriter
}

func (s *secretResponse) Header() http.Header {
	return s.w.Header()
}

func (s *secretResponse) Write(b []byte) (int, error) {
	if _, err := getReplacer().WriteString(s.w, string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (s *secretResponse) WriteHeader(statusCode int) {
	s.w.WriteHeader(statusCode)
}

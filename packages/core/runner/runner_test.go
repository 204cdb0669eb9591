package runner

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRequestFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "requests.http")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRunFile_SingleGETNoEnvironment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := writeRequestFile(t, dir, "GET "+srv.URL+"/health\n")

	r := NewRunner(&Config{})
	result, err := r.RunFile(path)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Passed)
	assert.Equal(t, 1, result.Passed)
}

func TestRunFile_VariablePrecedenceUnderDryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "http-client.env.json"), []byte(`{
  "dev": {"host": "env.example.com"}
}`), 0o644))

	path := writeRequestFile(t, dir, `### fetch
@host = inplace.example.com
GET https://{{host}}/ping
`)

	r := NewRunner(&Config{Profile: "dev", DryRun: true})
	result, err := r.RunFile(path)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].DryRun)
	assert.Equal(t, "https://inplace.example.com/ping", result.Results[0].URL)
}

func TestRunFile_DryRunNeverInvokesTheHandler(t *testing.T) {
	dir := t.TempDir()
	path := writeRequestFile(t, dir, `### would-set-a-global
GET https://example.invalid/ping
> {%
client.global.set("createdId", "should-not-be-set");
client.test("never runs", function() {
  client.assert(false, "handler ran during dry-run");
});
%}
`)

	r := NewRunner(&Config{DryRun: true})
	result, err := r.RunFile(path)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)

	res := result.Results[0]
	assert.True(t, res.DryRun)
	assert.Empty(t, res.Tests)
	assert.Empty(t, res.Logs)

	_, ok := r.globals.Get("createdId")
	assert.False(t, ok)
}

func TestRunFile_GlobalsPropagateAcrossRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/create" {
			w.Write([]byte(`{"id":"abc123"}`))
			return
		}
		w.Write([]byte(`{"echo":"` + r.URL.Query().Get("id") + `"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := writeRequestFile(t, dir, `### create
GET `+srv.URL+`/create
> {%
client.global.set("createdId", response.body.id);
%}

### fetch
GET `+srv.URL+`/fetch?id={{createdId}}
> {%
client.test("echoes id", function() {
  client.assert(response.body.echo === "abc123");
});
%}
`)

	r := NewRunner(&Config{})
	result, err := r.RunFile(path)
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[1].Passed)
	require.Len(t, result.Results[1].Tests, 1)
	assert.True(t, result.Results[1].Tests[0].Passed)
}

func TestRunFile_FailingTestFailsTheRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := writeRequestFile(t, dir, `### check
GET `+srv.URL+`/
> {%
client.test("status is teapot", function() {
  client.assert(response.status === 418, "expected 418 got " + response.status);
});
%}
`)

	r := NewRunner(&Config{})
	result, err := r.RunFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Passed)
	assert.Equal(t, 1, result.Failed)

	require.Len(t, result.Results[0].Failures, 1)
	failure := result.Results[0].Failures[0]
	assert.Equal(t, "check", failure.RequestName)
	assert.Equal(t, "status is teapot", failure.TestName)
	assert.Contains(t, failure.Message, "expected 418 got 200")
}

func TestRunFile_IndexTakesPrecedenceOverName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := writeRequestFile(t, dir, `### alpha
GET `+srv.URL+`/a

### beta
GET `+srv.URL+`/b
`)

	var warnings []string
	r := NewRunner(&Config{Index: 2, NameFilter: "alpha"})
	r.SetWarnFunc(func(format string, args ...any) { warnings = append(warnings, format) })

	result, err := r.RunFile(path)
	require.NoError(t, err)

	var ran *RequestResult
	for _, res := range result.Results {
		if !res.Skipped {
			ran = res
		}
	}
	require.NotNil(t, ran)
	assert.Equal(t, "beta", ran.Name)
	assert.NotEmpty(t, warnings)
}

func TestRunFile_NameFilterIsCaseInsensitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := writeRequestFile(t, dir, `### Get User
GET `+srv.URL+`/a

### Get Users
GET `+srv.URL+`/b

### Post User
GET `+srv.URL+`/c

### Delete Account
GET `+srv.URL+`/d
`)

	r := NewRunner(&Config{NameFilter: "user"})
	result, err := r.RunFile(path)
	require.NoError(t, err)

	var ran, skipped []string
	for _, res := range result.Results {
		if res.Skipped {
			skipped = append(skipped, res.Name)
		} else {
			ran = append(ran, res.Name)
		}
	}
	assert.ElementsMatch(t, []string{"Get User", "Get Users", "Post User"}, ran)
	assert.ElementsMatch(t, []string{"Delete Account"}, skipped)
}

func TestRunFile_NameFilterWithNoMatchesIsAUsageError(t *testing.T) {
	dir := t.TempDir()
	path := writeRequestFile(t, dir, `### alpha
GET https://example.com/
`)

	r := NewRunner(&Config{NameFilter: "nope"})
	_, err := r.RunFile(path)
	require.Error(t, err)

	var uerr *UsageError
	assert.ErrorAs(t, err, &uerr)
}

func TestRunFile_UnknownIndexIsAUsageError(t *testing.T) {
	dir := t.TempDir()
	path := writeRequestFile(t, dir, "GET https://example.com/\n")

	r := NewRunner(&Config{Index: 99})
	_, err := r.RunFile(path)
	require.Error(t, err)

	var uerr *UsageError
	assert.ErrorAs(t, err, &uerr)
}

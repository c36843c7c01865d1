package exporter

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataras/onshape-exporter/pkg/combos"
	"github.com/kataras/onshape-exporter/pkg/onshape"
)

// fakeAPI serves one STL body per combination, keyed by the first assignment value.
type fakeAPI struct {
	noRedirect map[string]bool // values whose export has no Location
	badStatus  map[string]bool // values whose download fails with 404
	netErr     map[string]bool // values whose encode fails below HTTP
	calls      []string
}

func (f *fakeAPI) EncodeConfiguration(ref onshape.DocumentRef, assignments []onshape.ParameterAssignment) (*onshape.EncodedConfiguration, error) {
	v := assignments[0].Value
	f.calls = append(f.calls, "encode:"+v)
	if f.netErr[v] {
		return nil, errors.New("dial tcp: connection refused")
	}
	return &onshape.EncodedConfiguration{EncodedID: "enc-" + v}, nil
}

func (f *fakeAPI) ExportSTL(ref onshape.DocumentRef, partID, configuration string) (string, error) {
	f.calls = append(f.calls, "export:"+configuration)
	v := strings.TrimPrefix(configuration, "enc-")
	if f.noRedirect[v] {
		return "", &onshape.RequestError{Op: "export", Status: http.StatusOK, Message: "no redirect location"}
	}
	return "https://files.example.com/" + v, nil
}

func (f *fakeAPI) Download(downloadURL string) (io.ReadCloser, error) {
	f.calls = append(f.calls, "download:"+downloadURL)
	v := strings.TrimPrefix(downloadURL, "https://files.example.com/")
	if f.badStatus[v] {
		return nil, &onshape.RequestError{Op: "download", Status: http.StatusNotFound, URL: downloadURL}
	}
	return io.NopCloser(strings.NewReader("stl:" + v)), nil
}

func sizeParam(values ...string) []onshape.ConfigParameter {
	p := onshape.ConfigParameter{ID: "size", Name: "Size"}
	for _, v := range values {
		p.Options = append(p.Options, onshape.ConfigOption{Value: v, Name: v})
	}
	return []onshape.ConfigParameter{p}
}

var (
	testRef  = onshape.DocumentRef{DocumentID: "D1", WVM: "w", WVMID: "W1", ElementID: "E1"}
	testPart = onshape.Part{PartID: "JHD", Name: "Bracket"}
)

func TestExportSTLs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	api := &fakeAPI{}

	var notified []string
	result, err := ExportSTLs(api, testRef, testPart, combos.Enumerate(sizeParam("S", "M")), ExportConfig{OutputDir: dir}, func(o Outcome) {
		notified = append(notified, o.FileName)
	})

	require.NoError(t, err)
	require.Len(t, result.Downloaded(), 2)
	assert.Empty(t, result.Skipped())
	assert.Equal(t, []string{"Bracket-S.stl", "Bracket-M.stl"}, notified)

	data, err := os.ReadFile(filepath.Join(dir, "Bracket-M.stl"))
	require.NoError(t, err)
	assert.Equal(t, "stl:M", string(data))

	assert.Equal(t, []string{
		"encode:S", "export:enc-S", "download:https://files.example.com/S",
		"encode:M", "export:enc-M", "download:https://files.example.com/M",
	}, api.calls)
}

func TestExportSTLs_SkipsAndContinues(t *testing.T) {
	dir := t.TempDir()
	api := &fakeAPI{
		noRedirect: map[string]bool{"S": true},
		badStatus:  map[string]bool{"M": true},
	}

	result, err := ExportSTLs(api, testRef, testPart, combos.Enumerate(sizeParam("S", "M", "L")), ExportConfig{OutputDir: dir}, nil)

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)

	skipped := result.Skipped()
	require.Len(t, skipped, 2)
	assert.Equal(t, "S", skipped[0].Combination.Name)
	assert.Equal(t, "M", skipped[1].Combination.Name)

	var reqErr *onshape.RequestError
	require.ErrorAs(t, skipped[1].Err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.Status)

	assert.NoFileExists(t, filepath.Join(dir, "Bracket-S.stl"))
	assert.NoFileExists(t, filepath.Join(dir, "Bracket-M.stl"))
	assert.FileExists(t, filepath.Join(dir, "Bracket-L.stl"))
}

func TestExportSTLs_NetworkFailureStops(t *testing.T) {
	dir := t.TempDir()
	api := &fakeAPI{netErr: map[string]bool{"M": true}}

	result, err := ExportSTLs(api, testRef, testPart, combos.Enumerate(sizeParam("S", "M", "L")), ExportConfig{OutputDir: dir}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	require.NotNil(t, result)
	assert.Len(t, result.Outcomes, 1)
	assert.NoFileExists(t, filepath.Join(dir, "Bracket-L.stl"))
}

func TestExportSTLs_OverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Bracket-S.stl")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0644))

	_, err := ExportSTLs(&fakeAPI{}, testRef, testPart, combos.Enumerate(sizeParam("S")), ExportConfig{OutputDir: dir}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "stl:S", string(data))
}

// TestExportSTLs_MissingRedirect runs the real client against a fake Onshape server
// whose export endpoint answers the first configuration without a Location header.
func TestExportSTLs_MissingRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/elements/d/D1/e/E1/configurationencodings", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"parameterValue":"S"`) {
			io.WriteString(w, `{"encodedId":"encS"}`)
			return
		}
		io.WriteString(w, `{"encodedId":"encM"}`)
	})
	mux.HandleFunc("/partstudios/d/D1/w/W1/e/E1/stl", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("configuration") == "encS" {
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, "no location here")
			return
		}
		http.Redirect(w, r, "/blob/M.stl", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/blob/M.stl", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "binary-M")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	client := onshape.NewClient("token", onshape.WithBaseURL(server.URL))

	result, err := ExportSTLs(client, testRef, testPart, combos.Enumerate(sizeParam("S", "M")), ExportConfig{OutputDir: dir}, nil)

	require.NoError(t, err)
	require.Len(t, result.Skipped(), 1)
	assert.Contains(t, result.Skipped()[0].Err.Error(), "no location here")
	assert.NoFileExists(t, filepath.Join(dir, "Bracket-S.stl"))

	data, err := os.ReadFile(filepath.Join(dir, "Bracket-M.stl"))
	require.NoError(t, err)
	assert.Equal(t, "binary-M", string(data))
}

func TestExportSTLs_LongOptionName(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 300)

	result, err := ExportSTLs(&fakeAPI{}, testRef, testPart, combos.Enumerate(sizeParam("S", long, "M")), ExportConfig{OutputDir: dir}, nil)

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)
	assert.Empty(t, result.Skipped())

	name := result.Outcomes[1].FileName
	assert.LessOrEqual(t, len(name), 255)
	assert.True(t, strings.HasPrefix(name, "Bracket-xxx"))
	assert.FileExists(t, filepath.Join(dir, name))
	assert.FileExists(t, filepath.Join(dir, "Bracket-M.stl"))
}

func TestExportSTLs_CreateFailureSkips(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the target file makes os.Create fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Bracket-S.stl"), 0755))

	result, err := ExportSTLs(&fakeAPI{}, testRef, testPart, combos.Enumerate(sizeParam("S", "M")), ExportConfig{OutputDir: dir}, nil)

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	skipped := result.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "S", skipped[0].Combination.Name)
	assert.ErrorIs(t, skipped[0].Err, errWrite)

	data, err := os.ReadFile(filepath.Join(dir, "Bracket-M.stl"))
	require.NoError(t, err)
	assert.Equal(t, "stl:M", string(data))
}

func TestExportSTLs_SanitizedNameCollision(t *testing.T) {
	dir := t.TempDir()

	result, err := ExportSTLs(&fakeAPI{}, testRef, testPart, combos.Enumerate(sizeParam("1/2", "1:2", "1*2")), ExportConfig{OutputDir: dir}, nil)

	require.NoError(t, err)
	require.Len(t, result.Downloaded(), 3)

	var names []string
	for _, o := range result.Outcomes {
		names = append(names, o.FileName)
	}
	assert.Equal(t, []string{"Bracket-1_2.stl", "Bracket-1_2-2.stl", "Bracket-1_2-3.stl"}, names)
	assert.False(t, result.Outcomes[0].Renamed)
	assert.True(t, result.Outcomes[1].Renamed)
	assert.True(t, result.Outcomes[2].Renamed)

	data, err := os.ReadFile(filepath.Join(dir, "Bracket-1_2.stl"))
	require.NoError(t, err)
	assert.Equal(t, "stl:1/2", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "Bracket-1_2-2.stl"))
	require.NoError(t, err)
	assert.Equal(t, "stl:1:2", string(data))
}

func TestBuildFileName(t *testing.T) {
	tests := []struct {
		name     string
		partName string
		suffix   string
		ext      string
		want     string
	}{
		{name: "plain", partName: "Bracket", suffix: "Small x Red", ext: "stl", want: "Bracket-Small x Red.stl"},
		{name: "separators", partName: "M3/M4", suffix: `a\b`, ext: "stl", want: "M3_M4-a_b.stl"},
		{name: "reserved characters", partName: "Part", suffix: `1:2*?"<>|`, ext: "txt", want: "Part-1_2______.txt"},
		{name: "trailing dot", partName: "Part", suffix: "v1.", ext: "stl", want: "Part-v1.stl"},
		{name: "no extension", partName: "Part", suffix: "A", ext: "", want: "Part-A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildFileName(tt.partName, tt.suffix, tt.ext); got != tt.want {
				t.Errorf("BuildFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeFileName_Empty(t *testing.T) {
	if got := SanitizeFileName(" . "); got != "export" {
		t.Errorf("SanitizeFileName() = %q, want %q", got, "export")
	}
}

func TestSanitizeFileName_Length(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
	}{
		{name: "ascii", in: strings.Repeat("a", 300), wantLen: maxNameBytes},
		{name: "multibyte boundary", in: "a" + strings.Repeat("é", 150), wantLen: maxNameBytes - 1},
		{name: "short", in: "Bracket-S", wantLen: len("Bracket-S")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFileName(tt.in)
			if len(got) != tt.wantLen {
				t.Errorf("len(SanitizeFileName()) = %d, want %d", len(got), tt.wantLen)
			}
			if !utf8.ValidString(got) {
				t.Errorf("SanitizeFileName() = %q is not valid UTF-8", got)
			}
		})
	}
}

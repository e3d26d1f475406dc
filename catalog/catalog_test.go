package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"modpack-downloader/modpack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(ClientOptions{UserAgent: "test/1.0", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test/1.0", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRequiresUserAgent(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	assert.Error(t, err)
}

func TestModrinthListFiles(t *testing.T) {
	srv := serve(t, map[string]string{
		"/project/sodium/version": `[
			{"id":"v2","game_versions":["1.20.1"],"loaders":["fabric","quilt"],"date_published":"2023-07-01T10:00:00Z",
			 "files":[{"url":"https://cdn/x-extra.jar","filename":"x-extra.jar"},{"url":"https://cdn/x.jar","filename":"x.jar","primary":true}]},
			{"id":"v1","game_versions":["1.19.2"],"loaders":["fabric"],"date_published":"2022-08-01T10:00:00Z",
			 "files":[]}
		]`,
	})
	mr := NewModrinth(srv.URL+"/", newTestClient(t), nil)

	candidates := mr.ListFiles(context.Background(), "sodium")
	require.Len(t, candidates, 2)

	first := candidates[0]
	assert.Equal(t, "https://cdn/x.jar", first.URL, "primary file is the candidate's file")
	assert.Equal(t, "x.jar", first.Filename)
	assert.True(t, first.HasGameVersion("1.20.1"))
	assert.True(t, first.HasLoader("quilt"))
	assert.Len(t, first.Files, 2)
	assert.Equal(t, 2023, first.PublishedAt.Year())

	assert.Empty(t, candidates[1].Files)
}

func TestModrinthFetchMetadata(t *testing.T) {
	srv := serve(t, map[string]string{
		"/project/AANobbMI": `{"id":"AANobbMI","slug":"sodium","title":"Sodium","description":"Fast","icon_url":"https://cdn/icon.png"}`,
	})
	mr := NewModrinth(srv.URL, newTestClient(t), nil)

	meta := mr.FetchMetadata(context.Background(), "AANobbMI")
	assert.Equal(t, modpack.Metadata{
		ID:          "AANobbMI",
		Provider:    modpack.ProviderModrinth,
		Slug:        "sodium",
		Title:       "Sodium",
		Description: "Fast",
		IconURL:     "https://cdn/icon.png",
		URL:         "https://modrinth.com/mod/sodium",
	}, meta)
}

func TestAdaptersNeverFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/project/broken/version" || r.URL.Path == "/addon/9/files" {
			_, _ = w.Write([]byte("{not json"))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := newTestClient(t)

	adapters := []Adapter{
		NewModrinth(srv.URL, client, nil),
		NewCurseForge(srv.URL, client, nil),
	}
	for _, a := range adapters {
		t.Run(string(a.Provider()), func(t *testing.T) {
			assert.Empty(t, a.ListFiles(context.Background(), "missing"))
			assert.Empty(t, a.ListFiles(context.Background(), "broken"))
			assert.Empty(t, a.ListFiles(context.Background(), "9"))
			assert.True(t, a.FetchMetadata(context.Background(), "missing").IsError())
		})
	}
}

func TestCurseForgeListFilesSortsAndLowercases(t *testing.T) {
	srv := serve(t, map[string]string{
		"/addon/238222/files": `[
			{"id":1,"fileName":"old.jar","fileDate":"2021-01-01T00:00:00Z","downloadUrl":"https://edge/old.jar","gameVersion":["1.16.5","Forge"]},
			{"id":3,"fileName":"newest.jar","fileDate":"2023-03-01T00:00:00.123Z","downloadUrl":"https://edge/newest.jar","gameVersion":["1.19","Fabric","Quilt"]},
			{"id":2,"fileName":"mid.jar","fileDate":"2022-02-01T00:00:00Z","downloadUrl":"https://edge/mid.jar","gameVersion":["1.18.2","FORGE"]}
		]`,
	})
	cf := NewCurseForge(srv.URL, newTestClient(t), nil)

	candidates := cf.ListFiles(context.Background(), "238222")
	require.Len(t, candidates, 3)

	var names []string
	for _, c := range candidates {
		names = append(names, c.Filename)
	}
	assert.Equal(t, []string{"newest.jar", "mid.jar", "old.jar"}, names)
	assert.Equal(t, []string{"1.19", "fabric", "quilt"}, candidates[0].GameVersions)
	assert.True(t, candidates[1].HasLoader("forge"))
	assert.Equal(t, []File{{URL: "https://edge/newest.jar", Filename: "newest.jar"}}, candidates[0].Files)
}

func TestCurseForgeFetchMetadata(t *testing.T) {
	srv := serve(t, map[string]string{
		"/addon/238222": `{"id":238222,"name":"JEI","summary":"Item viewer","websiteUrl":"https://www.curseforge.com/minecraft/mc-mods/jei",
			"attachments":[{"url":"https://media/jei.png"},{"url":"https://media/other.png"}]}`,
	})
	cf := NewCurseForge(srv.URL, newTestClient(t), nil)

	meta := cf.FetchMetadata(context.Background(), "238222")
	assert.Equal(t, "JEI", meta.Title)
	assert.Equal(t, "Item viewer", meta.Description)
	assert.Equal(t, "https://media/jei.png", meta.IconURL)
	assert.Equal(t, "https://www.curseforge.com/minecraft/mc-mods/jei", meta.URL)
	assert.Equal(t, modpack.ProviderCurseForge, meta.Provider)
	assert.Equal(t, "238222", meta.ID)
}

func TestFetchBinary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jar" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "application/octet-stream", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("jar-bytes"))
	}))
	t.Cleanup(srv.Close)
	client := newTestClient(t)

	data, err := client.FetchBinary(context.Background(), srv.URL+"/mod.jar")
	require.NoError(t, err)
	assert.Equal(t, "jar-bytes", string(data))

	_, err = client.FetchBinary(context.Background(), srv.URL+"/missing.jar")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestRegistry(t *testing.T) {
	client := newTestClient(t)
	reg := NewRegistry(NewModrinth("http://x", client, nil), NewCurseForge("http://y", client, nil))

	a, ok := reg.For(modpack.ProviderCurseForge)
	require.True(t, ok)
	assert.Equal(t, modpack.ProviderCurseForge, a.Provider())

	_, ok = reg.For("nexus")
	assert.False(t, ok)
}

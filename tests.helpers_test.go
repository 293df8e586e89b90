package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBookPayload(t *testing.T) {
	testCases := []struct {
		name      string
		payload   BookPayload
		addErr    error
		updateErr error
	}{
		{"valid", BookPayload{Name: strPtr("A"), PageCount: 10, ReadPage: 10}, nil, nil},
		{"zero pages", BookPayload{Name: strPtr("A")}, nil, nil},
		{"nil name", BookPayload{PageCount: 1, ReadPage: 2}, msgNameRequired, msgNameRequiredForUpdate},
		{"empty name", BookPayload{Name: strPtr("")}, msgNameRequired, msgNameRequiredForUpdate},
		{"read page exceeds", BookPayload{Name: strPtr("A"), PageCount: 1, ReadPage: 2}, msgReadPageExceeds, msgReadPageExceeds},
		{"negative", BookPayload{Name: strPtr("A"), PageCount: -1, ReadPage: -2}, msgNegativePages, msgNegativePages},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.addErr, ValidateAddBookPayload(&tc.payload))
			assert.Equal(t, tc.updateErr, ValidateUpdateBookPayload(&tc.payload))
		})
	}
}

func TestDecodeBookRequestBody(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"name":"A","year":2000,"pageCount":5,"readPage":1,"reading":true,"unknown":1}`))
		var p BookPayload
		require.NoError(t, DecodeBookRequestBody(r, &p))
		require.NotNil(t, p.Name)
		assert.Equal(t, "A", *p.Name)
		assert.Equal(t, 2000, p.Year)
		assert.Equal(t, 5, p.PageCount)
		assert.Equal(t, 1, p.ReadPage)
		assert.True(t, p.Reading)
	})

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/books", nil)
		var p BookPayload
		require.NoError(t, DecodeBookRequestBody(r, &p))
		assert.Nil(t, p.Name)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"name":1}`))
		var p BookPayload
		err := DecodeBookRequestBody(r, &p)
		assert.ErrorIs(t, err, errInvalidPayload)
	})

	t.Run("trailing whitespace", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader("{\"name\":\"A\"}\n\t "))
		var p BookPayload
		require.NoError(t, DecodeBookRequestBody(r, &p))
		assert.Equal(t, "A", *p.Name)
	})

	for _, body := range []string{`{"name":"A"} trailing`, `{"name":"A"}{"name":"B"}`, `{"name":"A"}]`} {
		t.Run("trailing data "+body, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(body))
			var p BookPayload
			assert.ErrorIs(t, DecodeBookRequestBody(r, &p), errInvalidPayload)
		})
	}
}

func TestParseBookFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/books?reading=1&name=", nil)
	f := ParseBookFilter(r)
	require.NotNil(t, f.Name)
	assert.Equal(t, "", *f.Name)
	require.NotNil(t, f.Reading)
	assert.Equal(t, "1", *f.Reading)
	assert.Nil(t, f.Finished)

	f = ParseBookFilter(httptest.NewRequest(http.MethodGet, "/books", nil))
	assert.Equal(t, BookFilter{}, f)
}

func TestFormatTimestamp(t *testing.T) {
	zone := time.FixedZone("WAT", 3600)
	ts := time.Date(2023, 7, 1, 21, 19, 10, 760123456, zone)
	assert.Equal(t, "2023-07-01T20:19:10.760Z", FormatTimestamp(ts))
	assert.Equal(t, "2023-01-02T03:04:05.000Z", FormatTimestamp(time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestNanoIDGenerator(t *testing.T) {
	g := NewNanoIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := g.NewBookID()
		require.NoError(t, err)
		assert.Len(t, id, BookIDLength)
		for _, c := range id {
			assert.True(t, strings.ContainsRune(BookIDAlphabet, c), "unexpected character %q", c)
		}
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestIDsHandler(t *testing.T) {
	idh := NewIDsHandler()
	id := idh.Generate(RequestIDPrefix)
	assert.True(t, strings.HasPrefix(id, "r:"))
	assert.True(t, idh.IsValid(id, RequestIDPrefix))
	assert.False(t, idh.IsValid("r:not-a-uuid", RequestIDPrefix))
}

func TestGetRequestSourceIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", GetRequestSourceIP(r))

	r.Header.Set("X-FORWARDED-FOR", "invalid, 10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetRequestSourceIP(r))

	r.Header.Set("X-REAL-IP", "10.0.0.3")
	assert.Equal(t, "10.0.0.3", GetRequestSourceIP(r))
}

func TestWriteResponse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteResponse(context.Background(), w, http.StatusCreated, SuccessResponse("done", map[string]string{"bookId": "b0"})))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"status":"success","message":"done","data":{"bookId":"b0"}}`, w.Body.String())
	})

	t.Run("fail omits data", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteResponse(context.Background(), w, http.StatusNotFound, FailResponse("book not found")))
		assert.JSONEq(t, `{"status":"fail","message":"book not found"}`, w.Body.String())
	})

	t.Run("client closed request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		w := httptest.NewRecorder()
		assert.ErrorIs(t, WriteResponse(ctx, w, http.StatusOK, FailResponse("x")), context.Canceled)
		assert.Equal(t, 499, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("request timed out", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		w := httptest.NewRecorder()
		assert.ErrorIs(t, WriteResponse(ctx, w, http.StatusOK, FailResponse("x")), context.DeadlineExceeded)
		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

func TestCustomResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := NewCustomResponseWriter(rec, nil)
	assert.Equal(t, http.StatusOK, cw.Status())

	cw.WriteHeader(http.StatusAccepted)
	cw.WriteHeader(http.StatusTeapot)
	n, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusAccepted, cw.Status())
	assert.Equal(t, 5, cw.Bytes())
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.ErrorIs(t, cw.SetWriteDeadline(time.Now()), http.ErrNotSupported)
	assert.Equal(t, rec, cw.Unwrap())
}

func TestRSyncWrite(t *testing.T) {
	folder := t.TempDir()
	clock := NewMockClocker()
	rsw := NewRSyncWriter(&Config{LogFolder: folder, LogMaxSize: 1}, clock)

	n, err := rsw.Write([]byte("first line\n"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	require.NoError(t, rsw.Sync())

	_, err = rsw.Write(make([]byte, 2*1048576))
	assert.Error(t, err)

	require.NoError(t, rsw.Close())
	require.NoError(t, rsw.Close())

	path := CreateLogFilePath(folder, false, clock.Now())
	assert.Equal(t, filepath.Join(folder, "20230701.201910.760.dev.log"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first line\n", string(content))
}

// TestRSyncWrite_RotationSameInstant ensures files rotated without the
// clock moving never exceed the max size.
func TestRSyncWrite_RotationSameInstant(t *testing.T) {
	folder := t.TempDir()
	clock := NewMockClocker()
	rsw := NewRSyncWriter(&Config{LogFolder: folder, LogMaxSize: 1, IsProduction: true}, clock)
	t.Cleanup(func() { rsw.Close() })

	entry := make([]byte, 600*1024)
	for i := 0; i < 3; i++ {
		_, err := rsw.Write(entry)
		require.NoError(t, err)
	}
	require.NoError(t, rsw.Sync())

	files, err := os.ReadDir(folder)
	require.NoError(t, err)
	require.Len(t, files, 3)
	names := make([]string, 0, len(files))
	for _, f := range files {
		info, err := f.Info()
		require.NoError(t, err)
		assert.LessOrEqual(t, info.Size(), int64(1048576))
		names = append(names, f.Name())
	}
	assert.ElementsMatch(t, []string{
		"20230701.201910.760.prod.log",
		"20230701.201910.760.prod.1.log",
		"20230701.201910.760.prod.2.log",
	}, names)

	// a reopened writer keeps away from existing files.
	require.NoError(t, rsw.Close())
	_, err = rsw.Write([]byte("line\n"))
	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(folder, "20230701.201910.760.prod.3.log"))
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(content))
}

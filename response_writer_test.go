// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := newRecorder(w)
	assert.Equal(t, http.StatusOK, rec.Status())
	assert.False(t, rec.Written())
	assert.Equal(t, notWritten, rec.Size())
	assert.Same(t, w, rec.Unwrap())

	rec.WriteHeader(http.StatusCreated)
	assert.True(t, rec.Written())
	assert.Equal(t, 0, rec.Size())

	n, err := rec.Write([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, rec.Size())
	assert.Equal(t, http.StatusCreated, rec.Status())
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "foo", w.Body.String())
}

func TestRecorderReuse(t *testing.T) {
	rec := newRecorder(httptest.NewRecorder())
	assert.Same(t, rec, newRecorder(rec))
}

func TestRecorderSuperfluousWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rec := newRecorder(w)
	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusAccepted)
	assert.Equal(t, http.StatusCreated, rec.Status())
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	rec = newRecorder(w)
	_, err := rec.Write([]byte("foo"))
	require.NoError(t, err)
	rec.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusOK, rec.Status())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecorderResponseController(t *testing.T) {
	w := httptest.NewRecorder()
	rec := newRecorder(w)

	require.NoError(t, http.NewResponseController(rec).Flush())
	assert.True(t, w.Flushed)
}

func TestRecorderThroughRouter(t *testing.T) {
	r := newTestRouter(t)
	r.MustAdd("/stream", HandlerFunc(func(c *Context) error {
		_, err := io.WriteString(c.Writer(), "chunk")
		if err != nil {
			return err
		}
		return http.NewResponseController(c.Writer()).Flush()
	}))

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "chunk", string(body))
}

func TestNoopWriter(t *testing.T) {
	var w noopWriter
	assert.NotNil(t, w.Header())
	n, err := w.Write([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

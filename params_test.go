// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hrouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Get(t *testing.T) {
	params := make(Params, 0, 2)
	params = append(params,
		Param{
			Key:   "foo",
			Value: "bar",
		},
		Param{
			Key:      "path",
			Value:    "a/b",
			Segments: []string{"a", "b"},
		},
	)
	assert.Equal(t, "bar", params.Get("foo"))
	assert.Equal(t, "a/b", params.Get("path"))
	assert.Empty(t, params.Get("missing"))
}

func TestParams_Segments(t *testing.T) {
	params := Params{
		{Key: "foo", Value: "bar"},
		{Key: "path", Value: "a/b", Segments: []string{"a", "b"}},
	}
	assert.Equal(t, []string{"bar"}, params.Segments("foo"))
	assert.Equal(t, []string{"a", "b"}, params.Segments("path"))
	assert.Nil(t, params.Segments("missing"))
}

func TestParams_Clone(t *testing.T) {
	params := Params{
		{Key: "foo", Value: "bar"},
		{Key: "john", Value: "doe"},
	}
	cloned := params.Clone()
	assert.Equal(t, params, cloned)
	cloned[0].Value = "baz"
	assert.Equal(t, "bar", params.Get("foo"))
}

func TestParams_Has(t *testing.T) {
	t.Parallel()

	params := Params{
		{Key: "foo", Value: "bar"},
		{Key: "john", Value: "doe"},
	}

	assert.True(t, params.Has("foo"))
	assert.True(t, params.Has("john"))
	assert.False(t, params.Has("jane"))
}

func TestParams_Map(t *testing.T) {
	params := Params{
		{Key: "id", Value: "42"},
		{Key: "path", Value: "a/b", Segments: []string{"a", "b"}},
	}
	assert.Equal(t, map[string]any{"id": "42", "path": []string{"a", "b"}}, params.Map())
}

func TestParams_Merge(t *testing.T) {
	params := Params{
		{Key: "version", Value: "v1"},
		{Key: "id", Value: "1"},
	}
	merged := params.Clone().merge(Params{
		{Key: "id", Value: "2"},
		{Key: "name", Value: "john"},
	})
	assert.Equal(t, Params{
		{Key: "version", Value: "v1"},
		{Key: "id", Value: "2"},
		{Key: "name", Value: "john"},
	}, merged)
	assert.Equal(t, "1", params.Get("id"))
}

func TestParamsFromContext(t *testing.T) {
	assert.Nil(t, ParamsFromContext(context.Background()))

	params := Params{{Key: "foo", Value: "bar"}}
	ctx := context.WithValue(context.Background(), paramsKey, params)
	assert.Equal(t, params, ParamsFromContext(ctx))
}

package osint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osint-industries/oi-cli/internal/jsonval"
)

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestProjectModule_CopiesWellKnownFields(t *testing.T) {
	m := Module{Name: "github", Data: jsonval.MustParse(`{
		"registered": true,
		"id": 1234,
		"name": "The Octocat",
		"username": "octocat",
		"followers": 10,
		"premium": false,
		"profileUrl": "https://github.com/octocat",
		"unknownField": "dropped"
	}`)}

	got := marshal(t, ProjectModule(m))
	assert.JSONEq(t, `{
		"name": "github",
		"data": {
			"platformVariables": [],
			"registered": true,
			"id": 1234,
			"name": "The Octocat",
			"profileUrl": "https://github.com/octocat",
			"username": "octocat",
			"followers": 10,
			"premium": false
		}
	}`, got)
}

func TestProjectModule_KeepsNullAndUnexpectedTypes(t *testing.T) {
	m := Module{Name: "x", Data: jsonval.MustParse(`{
		"username": null,
		"followers": "1.2k",
		"id": {"k": 1},
		"registered": null,
		"premium": "yes"
	}`)}

	got := ProjectModule(m)
	require.NotNil(t, got.Data.Username)
	assert.Equal(t, jsonval.Null, got.Data.Username.Kind())
	require.NotNil(t, got.Data.Followers)
	assert.Equal(t, "1.2k", got.Data.Followers.Str())
	assert.Nil(t, got.Data.Name, "missing keys stay unset")

	assert.JSONEq(t, `{"name":"x","data":{
		"platformVariables": [],
		"username": null,
		"followers": "1.2k",
		"id": {"k": 1},
		"registered": null,
		"premium": "yes"
	}}`, marshal(t, got))
}

func TestProjectModule_AbsentFieldValues(t *testing.T) {
	m := Module{Name: "x", Data: jsonval.ObjectValue(
		jsonval.Member{Key: "username", Value: jsonval.Undefined()},
		jsonval.Member{Key: "location", Value: jsonval.ArrayValue(jsonval.StringValue("here"), jsonval.UnsupportedValue("func"))},
	)}

	got := ProjectModule(m).Data
	assert.Nil(t, got.Username)
	require.NotNil(t, got.Location)
	assert.Equal(t, `["here"]`, got.Location.String())
}

func TestProjectModule_StringID(t *testing.T) {
	m := Module{Name: "x", Data: jsonval.MustParse(`{"id":"abc"}`)}
	got := ProjectModule(m).Data
	require.NotNil(t, got.ID)
	assert.Equal(t, "abc", got.ID.Str())
}

func TestProjectModule_NonObjectData(t *testing.T) {
	got := ProjectModule(Module{Name: "x", Data: jsonval.MustParse(`[1,2]`)})
	assert.Equal(t, `{"name":"x","data":{"platformVariables":[]}}`, marshal(t, got))
}

func TestProjectModule_PlatformVariablesAlwaysPresent(t *testing.T) {
	for _, data := range []string{`{}`, `{"platformVariables": null}`, `{"platformVariables": {"a": 1}}`} {
		got := ProjectModule(Module{Name: "x", Data: jsonval.MustParse(data)})
		require.NotNil(t, got.Data.PlatformVariables, data)
		assert.Empty(t, got.Data.PlatformVariables, data)
	}
}

func TestNormalizePlatformVariables(t *testing.T) {
	in := jsonval.ArrayValue(
		jsonval.ObjectValue(
			jsonval.Member{Key: "key", Value: jsonval.StringValue("bio")},
			jsonval.Member{Key: "value", Value: jsonval.UnsupportedValue("func")},
			jsonval.Member{Key: "tags", Value: jsonval.ArrayValue(
				jsonval.StringValue("a"), jsonval.Undefined(), jsonval.NullValue(),
			)},
		),
		jsonval.StringValue("not a mapping"),
		jsonval.ObjectValue(),
	)

	got := NormalizePlatformVariables(in)
	require.Len(t, got, 3)
	assert.Equal(t, `{"key":"bio","tags":["a",null]}`, got[0].String())
	assert.Equal(t, `{}`, got[1].String())
	assert.Equal(t, `{}`, got[2].String())
	for _, v := range got {
		assert.True(t, v.IsNormalized())
	}
}

func TestModule_MarshalRaw(t *testing.T) {
	m := Module{Name: "raw", Data: jsonval.MustParse(`{"z":1,"a":{"b":[true]}}`)}
	assert.Equal(t, `{"name":"raw","data":{"z":1,"a":{"b":[true]}}}`, marshal(t, m))

	m.Data = jsonval.Undefined()
	assert.Equal(t, `{"name":"raw","data":null}`, marshal(t, m))
}

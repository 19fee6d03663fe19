package slp

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusSimpleDescription(t *testing.T) {
	status, err := ParseStatus(sampleStatus)
	require.NoError(t, err)

	assert.Equal(t, Version{Name: "1.16.5", Protocol: 754}, status.Version)
	assert.Equal(t, uint32(20), status.Players.Max)
	assert.Equal(t, uint32(3), status.Players.Online)
	assert.Nil(t, status.Players.Sample)
	assert.Equal(t, DescriptionSimple, status.Description.Kind)
	assert.Equal(t, "A server", status.Description.Text())
	assert.Equal(t, "A server", status.Description.PlainText())
	assert.Empty(t, status.Favicon)
	assert.Nil(t, status.ModInfo)
	assert.Nil(t, status.ForgeData)
	assert.Nil(t, status.Mods())
}

func TestParseStatusStructuredDescription(t *testing.T) {
	raw := `{
		"version": {"name": "Paper 1.20.4", "protocol": 765},
		"players": {"max": 100, "online": 2, "sample": [
			{"name": "alice", "id": "4566e69f-c907-48ee-8d71-d7ba5aa00d20"},
			{"name": "bob", "id": "069a79f4-44e9-4726-a5be-fca90e38aaf5"}
		]},
		"description": {
			"text": "Welcome ",
			"color": "gold",
			"bold": true,
			"extra": [
				{"text": "to ", "italic": true},
				"the ",
				{"text": "server", "color": "aqua", "extra": [{"text": "!"}]}
			]
		},
		"enforcesSecureChat": true
	}`

	status, err := ParseStatus(raw)
	require.NoError(t, err)

	require.Len(t, status.Players.Sample, 2)
	assert.Equal(t, "alice", status.Players.Sample[0].Name)
	assert.Equal(t, "069a79f4-44e9-4726-a5be-fca90e38aaf5", status.Players.Sample[1].ID)

	d := status.Description
	require.Equal(t, DescriptionStructured, d.Kind)
	require.NotNil(t, d.Structured)
	assert.Equal(t, "Welcome ", d.Text())
	assert.Equal(t, "Welcome to the server!", d.PlainText())
	assert.Equal(t, "gold", d.Structured.Color)
	assert.True(t, d.Structured.Bold)
	require.Len(t, d.Structured.Extra, 3)
	assert.True(t, d.Structured.Extra[0].Italic)
	assert.Equal(t, "the ", d.Structured.Extra[1].Text)
	assert.Equal(t, "aqua", d.Structured.Extra[2].Color)
}

func TestParseStatusStructuredWithoutText(t *testing.T) {
	status, err := ParseStatus(`{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":{"extra":[{"text":"only extra"}]}}`)
	require.NoError(t, err)
	assert.Equal(t, "", status.Description.Text())
	assert.Equal(t, "only extra", status.Description.PlainText())
}

func TestParseStatusFavicon(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	favicon := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	raw := `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":"","favicon":"` + favicon + `"}`

	status, err := ParseStatus(raw)
	require.NoError(t, err)
	assert.Equal(t, favicon, status.Favicon)

	got, err := status.FaviconPNG()
	require.NoError(t, err)
	assert.Equal(t, png, got)

	_, err = (&StatusResponse{}).FaviconPNG()
	assert.ErrorIs(t, err, ErrNoFavicon)

	_, err = (&StatusResponse{Favicon: "https://example.com/icon.png"}).FaviconPNG()
	assert.Error(t, err)
}

func TestParseStatusModInfo(t *testing.T) {
	raw := `{"version":{"name":"1.12.2","protocol":340},"players":{"max":20,"online":0},"description":"modded",
		"modinfo":{"type":"FML","modList":[{"modid":"minecraft","version":"1.12.2"},{"modid":"forge","version":"14.23.5.2859"}]}}`

	status, err := ParseStatus(raw)
	require.NoError(t, err)
	require.NotNil(t, status.ModInfo)
	assert.Equal(t, ModLoaderForge, status.ModInfo.Type)
	require.NotNil(t, status.ModInfo.Forge)
	assert.Equal(t, []ForgeMod{
		{ModID: "minecraft", Version: "1.12.2"},
		{ModID: "forge", Version: "14.23.5.2859"},
	}, status.Mods())
}

func TestParseStatusUnknownModLoader(t *testing.T) {
	raw := `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":"",
		"modinfo":{"type":"Fabric","mods":["a"]}}`

	status, err := ParseStatus(raw)
	require.NoError(t, err)
	require.NotNil(t, status.ModInfo)
	assert.Equal(t, "Fabric", status.ModInfo.Type)
	assert.Nil(t, status.ModInfo.Forge)
	assert.JSONEq(t, `{"type":"Fabric","mods":["a"]}`, string(status.ModInfo.Raw))
	assert.Nil(t, status.Mods())
}

func TestParseStatusForgeData(t *testing.T) {
	raw := `{"version":{"name":"1.16.5","protocol":754},"players":{"max":20,"online":0},"description":{"text":"forge"},
		"forgeData":{"channels":[{"res":"forge:tier_sorting","version":"1.0","required":false}],
		"mods":[{"modId":"forge","modmarker":"ANY"}],"fmlNetworkVersion":2}}`

	status, err := ParseStatus(raw)
	require.NoError(t, err)
	require.NotNil(t, status.ForgeData)
	assert.Equal(t, 2, status.ForgeData.FMLNetworkVersion)
	require.Len(t, status.ForgeData.Channels, 1)
	assert.Equal(t, "forge:tier_sorting", status.ForgeData.Channels[0].Res)
	assert.Equal(t, []ForgeMod{{ModID: "forge", Version: "ANY"}}, status.Mods())
}

func TestParseStatusInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "not json"},
		{"empty", ""},
		{"array", "[]"},
		{"missing version", `{"players":{"max":1,"online":0},"description":""}`},
		{"missing players", `{"version":{"name":"x","protocol":1},"description":""}`},
		{"missing description", `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0}}`},
		{"null description", `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":null}`},
		{"numeric description", `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":42}`},
		{"negative player count", `{"version":{"name":"x","protocol":1},"players":{"max":-1,"online":0},"description":""}`},
		{"modinfo without type", `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":"","modinfo":{"modList":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := ParseStatus(tt.raw)
			require.Error(t, err)
			assert.Nil(t, status)
			assert.Equal(t, KindInvalidResponseJSON, KindOf(err))
		})
	}
}

func TestStatusResponseMarshalJSON(t *testing.T) {
	status, err := ParseStatus(`{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},
		"description":{"text":"hi","extra":["there"]},"modinfo":{"type":"FML","modList":[]}}`)
	require.NoError(t, err)

	out, err := json.Marshal(status)
	require.NoError(t, err)

	again, err := ParseStatus(string(out))
	require.NoError(t, err)
	assert.Equal(t, "hithere", again.Description.PlainText())
	assert.Equal(t, ModLoaderForge, again.ModInfo.Type)
}

package slp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StatusResponse is the decoded JSON body of a status response.
type StatusResponse struct {
	Version     Version     `json:"version"`
	Players     Players     `json:"players"`
	Description Description `json:"description"`
	// Favicon is a data URI ("data:image/png;base64,...") when present.
	Favicon   string     `json:"favicon,omitempty"`
	ModInfo   *ModInfo   `json:"modinfo,omitempty"`
	ForgeData *ForgeData `json:"forgeData,omitempty"`
}

type Version struct {
	Name     string `json:"name"`
	Protocol uint32 `json:"protocol"`
}

type Players struct {
	Max    uint32   `json:"max"`
	Online uint32   `json:"online"`
	Sample []Player `json:"sample,omitempty"`
}

type Player struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

const faviconPrefix = "data:image/png;base64,"

// ErrNoFavicon is returned by FaviconPNG when the server sent no favicon.
var ErrNoFavicon = errors.New("server has no favicon")

// FaviconPNG decodes the favicon data URI into raw PNG bytes.
func (s *StatusResponse) FaviconPNG() ([]byte, error) {
	if s.Favicon == "" {
		return nil, ErrNoFavicon
	}
	data, ok := strings.CutPrefix(s.Favicon, faviconPrefix)
	if !ok {
		return nil, fmt.Errorf("favicon is not a png data uri")
	}
	// some servers wrap the base64 payload
	data = strings.ReplaceAll(data, "\n", "")
	return base64.StdEncoding.DecodeString(data)
}

// statusDocument mirrors StatusResponse with pointers so missing required
// fields can be told apart from zero values.
type statusDocument struct {
	Version     *Version     `json:"version"`
	Players     *Players     `json:"players"`
	Description *Description `json:"description"`
	Favicon     *string      `json:"favicon"`
	ModInfo     *ModInfo     `json:"modinfo"`
	ForgeData   *ForgeData   `json:"forgeData"`
}

// ParseStatus decodes the raw status JSON. version, players and description
// are required; unknown fields are ignored. Failures carry KindInvalidResponseJSON.
func ParseStatus(raw string) (*StatusResponse, error) {
	var doc statusDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, invalidJSON(err)
	}
	switch {
	case doc.Version == nil:
		return nil, invalidJSON(errors.New(`missing field "version"`))
	case doc.Players == nil:
		return nil, invalidJSON(errors.New(`missing field "players"`))
	case doc.Description == nil:
		return nil, invalidJSON(errors.New(`missing field "description"`))
	}
	resp := &StatusResponse{
		Version:     *doc.Version,
		Players:     *doc.Players,
		Description: *doc.Description,
		ModInfo:     doc.ModInfo,
		ForgeData:   doc.ForgeData,
	}
	if doc.Favicon != nil {
		resp.Favicon = *doc.Favicon
	}
	return resp, nil
}

func invalidJSON(err error) *Error {
	return &Error{Kind: KindInvalidResponseJSON, Op: "decode status", Err: err}
}

// DescriptionKind tells which shape the description field had on the wire.
type DescriptionKind int

const (
	// DescriptionSimple is a bare JSON string.
	DescriptionSimple DescriptionKind = iota
	// DescriptionStructured is a chat component object.
	DescriptionStructured
)

// Description is the server's MOTD, either a plain string or a chat component.
type Description struct {
	Kind   DescriptionKind
	Simple string
	// Structured is set when Kind is DescriptionStructured.
	Structured *TextComponent
}

// TextComponent is a styled piece of text with optional nested parts.
type TextComponent struct {
	Text          string          `json:"text"`
	Color         string          `json:"color,omitempty"`
	Bold          bool            `json:"bold,omitempty"`
	Italic        bool            `json:"italic,omitempty"`
	Underlined    bool            `json:"underlined,omitempty"`
	Strikethrough bool            `json:"strikethrough,omitempty"`
	Obfuscated    bool            `json:"obfuscated,omitempty"`
	Extra         []TextComponent `json:"extra,omitempty"`
}

// UnmarshalJSON accepts a bare string as shorthand for {"text": "..."}.
func (t *TextComponent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*t = TextComponent{}
		return json.Unmarshal(data, &t.Text)
	}
	type plain TextComponent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = TextComponent(p)
	return nil
}

// PlainText concatenates the component's text with all nested parts.
func (t *TextComponent) PlainText() string {
	var sb strings.Builder
	t.appendText(&sb)
	return sb.String()
}

func (t *TextComponent) appendText(sb *strings.Builder) {
	sb.WriteString(t.Text)
	for i := range t.Extra {
		t.Extra[i].appendText(sb)
	}
}

func (d *Description) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty description")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Description{Kind: DescriptionSimple, Simple: s}
		return nil
	case '{':
		var c TextComponent
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*d = Description{Kind: DescriptionStructured, Structured: &c}
		return nil
	default:
		return fmt.Errorf("description must be a string or an object, got %s", data)
	}
}

func (d Description) MarshalJSON() ([]byte, error) {
	if d.Kind == DescriptionStructured && d.Structured != nil {
		return json.Marshal(d.Structured)
	}
	return json.Marshal(d.Simple)
}

// Text returns the top-level text regardless of the description's shape.
// For structured descriptions nested parts are not included; see PlainText.
func (d Description) Text() string {
	if d.Kind == DescriptionStructured && d.Structured != nil {
		return d.Structured.Text
	}
	return d.Simple
}

// PlainText returns the full text of the description, nested parts included.
func (d Description) PlainText() string {
	if d.Kind == DescriptionStructured && d.Structured != nil {
		return d.Structured.PlainText()
	}
	return d.Simple
}

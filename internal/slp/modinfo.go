package slp

import (
	"encoding/json"
	"fmt"
)

// ModLoaderForge is the "type" discriminator Forge servers use in modinfo.
const ModLoaderForge = "FML"

// ModInfo is the legacy mod list some modded servers attach to their status.
// Type selects which of the loader-specific fields is set; unknown loaders keep
// only Type and Raw.
type ModInfo struct {
	Type  string
	Forge *ForgeModList
	Raw   json.RawMessage
}

type ForgeModList struct {
	ModList []ForgeMod `json:"modList"`
}

type ForgeMod struct {
	ModID   string `json:"modid"`
	Version string `json:"version"`
}

func (m *ModInfo) UnmarshalJSON(data []byte) error {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Type == nil {
		return fmt.Errorf(`modinfo: missing field "type"`)
	}
	info := ModInfo{
		Type: *head.Type,
		Raw:  append(json.RawMessage(nil), data...),
	}
	switch info.Type {
	case ModLoaderForge:
		var list ForgeModList
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("modinfo %s: %w", info.Type, err)
		}
		info.Forge = &list
	}
	*m = info
	return nil
}

func (m ModInfo) MarshalJSON() ([]byte, error) {
	if m.Forge != nil {
		return json.Marshal(struct {
			Type    string     `json:"type"`
			ModList []ForgeMod `json:"modList"`
		}{m.Type, m.Forge.ModList})
	}
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	return json.Marshal(struct {
		Type string `json:"type"`
	}{m.Type})
}

// Mods returns the mod list regardless of which field the server used.
func (s *StatusResponse) Mods() []ForgeMod {
	if s.ModInfo != nil && s.ModInfo.Forge != nil {
		return s.ModInfo.Forge.ModList
	}
	if s.ForgeData != nil {
		mods := make([]ForgeMod, 0, len(s.ForgeData.Mods))
		for _, m := range s.ForgeData.Mods {
			mods = append(mods, ForgeMod{ModID: m.ModID, Version: m.ModMarker})
		}
		return mods
	}
	return nil
}

// ForgeData is the mod metadata sent by Forge 1.13+ servers.
type ForgeData struct {
	Channels          []ForgeChannel `json:"channels"`
	Mods              []ForgeDataMod `json:"mods"`
	FMLNetworkVersion int            `json:"fmlNetworkVersion"`
	Truncated         bool           `json:"truncated,omitempty"`
}

type ForgeChannel struct {
	Res      string `json:"res"`
	Version  string `json:"version"`
	Required bool   `json:"required"`
}

type ForgeDataMod struct {
	ModID     string `json:"modId"`
	ModMarker string `json:"modmarker"`
}

package amap

import (
	"bytes"
	"encoding/json"
	"github.com/paulmach/orb"
)

// Place is one point of interest. Location is in GCJ-02.
type Place struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type,omitempty"`
	Address  string    `json:"address,omitempty"`
	Province string    `json:"province,omitempty"`
	City     string    `json:"city,omitempty"`
	District string    `json:"district,omitempty"`
	Location orb.Point `json:"location"`
}

type rawResponse struct {
	Status   string
	Info     string
	InfoCode string
	Count    string
	Pois     []rawPoi
}

type rawPoi struct {
	ID       string
	Name     string
	Type     string
	Address  looseString
	Location looseString
	PName    looseString
	CityName looseString
	AdName   looseString
}

// looseString accepts both "text" and [] since the service sends an empty
// array for missing text fields.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		if len(parts) > 0 {
			*s = looseString(parts[0])
		} else {
			*s = ""
		}
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = looseString(v)
	return nil
}
